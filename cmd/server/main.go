package main

import (
	"os"

	"github.com/Dhruvipatel1708/chatbot/internal/app"
)

// @title           Tutor Chat API
// @version         1.0
// @description     Session-based tutoring chat backed by a local or hosted language model.

// @host      localhost:8000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	os.Exit(app.Run())
}
