package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ammiranda/td/internal/app"
	"github.com/ammiranda/td/internal/lambda"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	a, err := app.Load(ctx)
	if err != nil {
		slog.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close(ctx)

	handler := lambda.NewHandler(a.Service, a.Logger)
	awslambda.Start(handler.Handle)
}
