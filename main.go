package main

import (
	"github.com/manifest-network/mediaproof/cmd/mediaproof"
)

func main() {
	mediaproof.Execute()
}
