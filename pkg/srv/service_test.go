package srv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name    string
	started chan struct{}
	order   *[]string
}

func (r *recorder) Start(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	return nil
}

func (r *recorder) Shutdown(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	*r.order = append(*r.order, r.name)
	return nil
}

type broken struct{}

func (broken) Start(context.Context) error    { return errors.New("address in use") }
func (broken) Shutdown(context.Context) error { return nil }

func TestStartAndShutdownServices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	first := &recorder{name: "first", started: make(chan struct{}), order: &order}
	second := &recorder{name: "second", started: make(chan struct{}), order: &order}
	services := []Service{first, second}

	StartServices(ctx, services)

	for _, r := range []*recorder{first, second} {
		select {
		case <-r.started:
		case <-time.After(time.Second):
			t.Fatalf("%s did not start", r.name)
		}
	}

	cancel()
	ShutdownServices(ctx, services)
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestStartServices_ReportsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failed := StartServices(ctx, []Service{broken{}})

	select {
	case err := <-failed:
		assert.ErrorContains(t, err, "address in use")
	case <-time.After(time.Second):
		t.Fatal("start failure not reported")
	}
}
