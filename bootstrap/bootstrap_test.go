package bootstrap

import (
	"testing"
	"time"

	"github.com/fulldump/hyperpool/configuration"
)

func TestBootstrap(t *testing.T) {

	c := configuration.Default()
	c.HttpAddr = "127.0.0.1:0"
	c.Workers = 2
	c.Objects = 8
	c.Churn = 0

	start, stop := Bootstrap(&c)

	done := make(chan struct{})
	go func() {
		start()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("bootstrap did not stop")
	}
}

func TestBootstrap_WithoutInspector(t *testing.T) {

	c := configuration.Default()
	c.HttpAddr = ""
	c.Workers = 1

	start, stop := Bootstrap(&c)
	stop()
	start() // returns right away, the workload was already stopped
}
