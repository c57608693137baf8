package app

import (
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/api"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/service"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/version"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewCmdServer(logger logrus.FieldLogger, config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the application server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.WithField("v", version.VERSION).Info("Starting server...")
			return doServer(logger, config)
		},
	}
}

func doServer(logger logrus.FieldLogger, config *Config) error {
	registrations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wcs_remote_service",
		Name:      "registrations_total",
		Help:      "The total number of services registered.",
	})
	prometheus.MustRegister(registrations)

	st, err := openStore(logger, config)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	var registry *service.Registry
	{
		logger := logger.WithField("component", "registry")
		registry, err = service.NewRegistry(logger, st, config.Timeout())
		if err != nil {
			return err
		}
	}

	var g run.Group
	{
		ln, err := net.Listen("tcp", config.Server.Listen)
		if err != nil {
			return err
		}
		logger.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

		g.Add(func() error {
			mux := http.NewServeMux()

			// Health check.
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, "OK")
			})

			// Prometheus metrics.
			mux.Handle("/metrics", promhttp.Handler())

			// Profiling data.
			mux.HandleFunc("/debug/pprof/", pprof.Index)
			mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
			mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
			mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
			mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
			mux.Handle("/debug/pprof/block", pprof.Handler("block"))
			mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
			mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
			mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))

			// Administrative JSON API.
			api.New(logger, st, api.WithTimeout(config.Timeout()), api.WithCounter(registrations)).Routes(mux)

			return http.Serve(ln, mux)
		}, func(error) {
			ln.Close()
		})
	}
	{
		cancel := make(chan struct{})

		g.Add(func() error {
			err := interrupt(cancel, registry)
			logger.Warn("Shutting down...")
			return err
		}, func(error) {
			close(cancel)
		})
	}

	defer registry.Stop()
	return g.Run()
}
