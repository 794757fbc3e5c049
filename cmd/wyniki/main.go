package main

import "wyniki/pkg/logger"

func main() {
	logger.Version = version
	Execute()
}
