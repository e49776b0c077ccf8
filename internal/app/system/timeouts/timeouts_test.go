package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer timeouts.Reset()

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})

	if got := timeouts.Short(); got != 7*time.Second {
		t.Errorf("Short = %v, want 7s", got)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium = %v, want default %v", got, timeouts.DefaultMedium)
	}
}

func TestReset(t *testing.T) {
	timeouts.Configure(timeouts.Config{Ping: time.Second, Long: time.Minute})
	timeouts.Reset()

	want := timeouts.Config{
		Ping:   timeouts.DefaultPing,
		Short:  timeouts.DefaultShort,
		Medium: timeouts.DefaultMedium,
		Long:   timeouts.DefaultLong,
	}
	if got := timeouts.Current(); got != want {
		t.Errorf("Current = %+v, want %+v", got, want)
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", ctx.Err())
	}
}
