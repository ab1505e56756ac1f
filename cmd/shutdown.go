package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/naughtygopher/proberesponder"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	xhttp "github.com/prashantkr001/catalog-go/cmd/server/http"
	kafkaSubs "github.com/prashantkr001/catalog-go/cmd/subscriber/kafka"
	"github.com/prashantkr001/catalog-go/internal/pkg/apm"
	"github.com/prashantkr001/catalog-go/internal/pkg/logger"
)

// shutdownItemHTTPServer is used to shutdown the HTTP server
// Similarly, we should implement shutdown for any other long-standing actions. e.g. gcppubsub listener
// kafka listener etc.
func shutdownItemHTTPServer(ctx context.Context, hserver *xhttp.HTTP) {
	err := hserver.Shutdown(ctx)
	if err != nil {
		logger.ErrWithStacktrace(err)
		return
	}
}

func shutdownItemKafkaSubscriber(ctx context.Context, ksub *kafkaSubs.Kafka) {
	err := ksub.Shutdown(ctx)
	if err != nil {
		logger.ErrWithStacktrace(err)
		return
	}
}

func withShutdownProbes(
	pResp *proberesponder.ProbeResponder,
	id string,
	fn func(),
) func() error {
	return func() error {
		defer pResp.AppendHealthResponse(
			fmt.Sprintf("shutdown/%s", id),
			fmt.Sprintf("completed %s", time.Now().Format(time.RFC3339)),
		)
		pResp.AppendHealthResponse(
			fmt.Sprintf("shutdown/%s", id),
			fmt.Sprintf("initiated %s", time.Now().Format(time.RFC3339)),
		)
		fn()
		return nil
	}
}

func shutdown(
	pResp *proberesponder.ProbeResponder,
	healthResp *http.Server,
	httpServer *xhttp.HTTP,
	ksub *kafkaSubs.Kafka,
	mongoCli *mongo.Client,
	apmHandler *apm.APM,
) {
	// the time should be decided based on the K8s grace period allowed for shutdown
	// ref: terminationGracePeriodSeconds, https://kubernetes.io/docs/concepts/containers/container-lifecycle-hooks/
	const shutdownTimeout = time.Second * 60
	pResp.AppendHealthResponse("shutdown", fmt.Sprintf("initiated %s", time.Now().Format(time.RFC3339)))
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	/*
		Note: Though there is no mandate to do healthcheck via HTTP, it is important to keep healthcheck
		endpoint available as long as possible to provide Kubernetes probes as much context as possible.
		Esepcially during the graceful shutdown period. Hence it is recommended to setup an independent
		server for health checks alone.
	*/
	defer func() {
		_ = healthResp.Shutdown(ctx)
	}()

	shutdownAPIs(ctx, pResp, httpServer, ksub)

	// after all the APIs of the application are shutdown (e.g. HTTP, Pubsub listener etc.)
	// we should close connections to dependencies like database, cache etc.
	// This should only be done after the APIs are shutdown completely
	shutdownDependencies(ctx, pResp, mongoCli, apmHandler)
}

func shutdownAPIs(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	httpServer *xhttp.HTTP,
	ksub *kafkaSubs.Kafka,
) {
	grp := new(errgroup.Group)
	grp.Go(withShutdownProbes(pResp, "http-itemserver", func() {
		shutdownItemHTTPServer(ctx, httpServer)
	}))
	grp.Go(withShutdownProbes(pResp, "kafka-subscriber", func() {
		shutdownItemKafkaSubscriber(ctx, ksub)
	}))

	_ = grp.Wait()
}

func shutdownDependencies(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	mongoCli *mongo.Client,
	apmHandler *apm.APM,
) {
	grp := new(errgroup.Group)
	grp.Go(withShutdownProbes(pResp, "mongodb-driver", func() {
		_ = mongoCli.Disconnect(ctx)
	}))
	grp.Go(withShutdownProbes(pResp, "apm-server", func() {
		err := apmHandler.Shutdown(ctx)
		if err != nil {
			logger.ErrWithStacktrace(err)
		}
	}))

	_ = grp.Wait()
}
