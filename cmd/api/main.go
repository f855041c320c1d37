package main

import (
	"go.uber.org/fx"

	"github.com/cafeworks/espresso/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
