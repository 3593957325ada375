package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/frodopackets/DeathStrandsing/internal/handler"
)

func main() {
	lambda.Start(handler.New().Handle)
}
