// Command despatchctl ejecuta el extractor, el generador y el informe PDF
// sobre ficheros locales, sin servidor ni base de datos.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
