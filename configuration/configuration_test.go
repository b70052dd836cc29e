package configuration

import (
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/hyperpool/objectpool"
)

func TestConfiguration(t *testing.T) {

	biff.Alternative("Default", func(a *biff.A) {

		c := Default()
		biff.AssertNil(c.Validate())

		a.Alternative("Leak policy is case insensitive", func(a *biff.A) {
			c.LeakPolicy = "PANIC"
			p, err := c.GetLeakPolicy()
			biff.AssertNil(err)
			biff.AssertEqual(p, objectpool.LeakPanic)
		})

		a.Alternative("Unknown leak policy", func(a *biff.A) {
			c.LeakPolicy = "ignore"
			err := c.Validate()
			biff.AssertNotNil(err)
			biff.AssertEqual(err.Error(), "bad leak policy 'ignore', must be [log|panic]")
		})

		a.Alternative("Zero block size", func(a *biff.A) {
			c.BlockSize = 0
			biff.AssertNotNil(c.Validate())
		})

		a.Alternative("Negative workers", func(a *biff.A) {
			c.Workers = -1
			biff.AssertNotNil(c.Validate())
		})
	})
}
