package main

import (
	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
