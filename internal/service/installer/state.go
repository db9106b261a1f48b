package installer

// InstallState is what the wizard collects before writing the runtime
// directory.
type InstallState struct {
	RuntimePath string
	EnvVars     map[string]string
}

func NewInstallState(runtimePath string) *InstallState {
	return &InstallState{
		RuntimePath: runtimePath,
		EnvVars:     make(map[string]string),
	}
}

func (s *InstallState) provider() string {
	return s.EnvVars[envLLMProvider]
}
