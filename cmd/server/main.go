package main

import (
	_ "github.com/eleven-am/videochat/docs"
	"github.com/eleven-am/videochat/internal/bootstrap"
)

// @title Video Chat API
// @version 1.0.0
// @description Chat with a video language model about uploaded clips

// @BasePath /v1

func main() {
	bootstrap.Run()
}
