package cpu

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumCPU_AtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, NumCPU(), 1)
}

func TestCoreFor(t *testing.T) {
	n := NumCPU()

	tests := []struct {
		name     string
		workerID int
		want     int
	}{
		{name: "first", workerID: 0, want: 0},
		{name: "wraps", workerID: n, want: 0},
		{name: "wraps plus one", workerID: n + 1, want: 1 % n},
		{name: "negative", workerID: -1, want: 1 % n},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coreFor(tt.workerID))
		})
	}
}

func TestSetupWorkerAffinity_Cleanup(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		cleanup := SetupWorkerAffinity(1)
		cleanup()
	}()
	<-done
}

func TestBindToParent_DoesNotStartCommand(t *testing.T) {
	cmd := exec.Command("true")
	BindToParent(cmd)
	assert.Nil(t, cmd.Process)
}
