package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// Prints a random hex encoded secret suitable for the SECRET_KEY setting
func main() {
	length := pflag.IntP("bytes", "n", 32, "secret length in bytes before encoding")
	pflag.Parse()

	if *length < 16 {
		fmt.Fprintln(os.Stderr, "secret shorter than 16 bytes is too weak")
		os.Exit(1)
	}

	b := make([]byte, *length)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
