// Command lambda-http serves the gap analysis API from AWS Lambda behind an
// API Gateway HTTP API.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"estate-gap-backend/internal/bootstrap"
	"estate-gap-backend/internal/shared/config"
	"estate-gap-backend/internal/shared/server/respond"
	"estate-gap-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	adapter  *ginadapter.GinLambdaV2
	initErr  error
)

func initApp() {
	cfg := config.Load()
	telemetry.Setup(cfg.LogLevel)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	adapter = ginadapter.NewV2(app.Router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		return unavailable("service is starting up, retry shortly"), nil
	}
	return adapter.ProxyWithContext(ctx, req)
}

// unavailable answers in the API's error envelope. Bootstrap failures stay
// cached for the life of the execution environment.
func unavailable(message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{Code: respond.CodeInternal, Message: message}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json", "Retry-After": "5"},
	}
}

func main() {
	lambda.Start(handler)
}
