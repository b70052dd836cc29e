package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fulldump/box"

	"github.com/fulldump/hyperpool/api"
	"github.com/fulldump/hyperpool/configuration"
	"github.com/fulldump/hyperpool/metrics"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/service"
	"github.com/fulldump/hyperpool/workload"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	leakPolicy, err := c.GetLeakPolicy()
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	r := registry.New(&registry.Config{
		BlockSize:  c.BlockSize,
		LeakPolicy: leakPolicy,
		Logger:     log.New(os.Stdout, "REGISTRY: ", log.Lshortfile),
	})

	w := workload.New(r, &workload.Config{
		Workers: c.Workers,
		Objects: c.Objects,
		Churn:   time.Duration(c.Churn) * time.Millisecond,
		Seed:    uint64(time.Now().UnixNano()),
	})

	var s *http.Server
	var ln net.Listener
	if c.HttpAddr != "" {
		var metricsHandler http.Handler
		if c.EnableMetrics {
			metricsHandler = metrics.Handler(r)
		}

		b := api.Build(service.NewService(r), VERSION, metricsHandler)
		b.WithInterceptors(
			api.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
			api.InterceptorUnavailable(r),
			api.RecoverFromPanic,
			api.PrettyErrorInterceptor,
		)

		s = &http.Server{
			Addr:    c.HttpAddr,
			Handler: box.Box2Http(b),
		}

		ln, err = net.Listen("tcp", c.HttpAddr)
		if err != nil {
			log.Println("ERROR:", err.Error())
			os.Exit(-1)
		}
		log.Println("listening on", c.HttpAddr)
	}

	stopOnce := &sync.Once{}
	stop = func() {
		stopOnce.Do(func() {
			w.Stop()
			if s != nil {
				s.Shutdown(context.Background())
			}
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			fmt.Println("Signal received", sig.String())
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.Start()
			if err != nil {
				fmt.Println(err.Error())
			}
		}()

		if s != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Serve(ln)
				if err != nil && err != http.ErrServerClosed {
					fmt.Println(err.Error())
				}
			}()
		}

		wg.Wait()

		// objects still alive here are leaks
		err := r.Close()
		if err != nil {
			log.Println("ERROR:", err.Error())
		}

		err = registry.Shutdown()
		if err != nil {
			log.Println("ERROR:", err.Error())
		}
	}

	return
}
