package main

import (
	"github.com/nguyentranbao-ct/product-concierge/cmd"
)

func main() {
	cmd.Execute()
}
