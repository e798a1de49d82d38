package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"

	"github.com/mkravets/orbita-api/internal/config"
	"github.com/mkravets/orbita-api/internal/container"
	"github.com/mkravets/orbita-api/internal/router"
)

var chiLambda *chiadapter.ChiLambdaV2

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	c := container.New()

	r := router.New(router.RouterConfig{
		UserHandler:    c.UserContainer.Handler,
		AimHandler:     c.AimContainer.Handler,
		CascadeHandler: c.CascadeContainer.Handler,
	})

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		chiLambda = chiadapter.NewV2(r)
		lambda.Start(handler)
		return
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	config.Logger().Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		config.Logger().WithError(err).Fatal("server stopped")
	}
}
