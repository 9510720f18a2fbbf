package codec_test

import (
	"fmt"

	"github.com/dshills/veil/internal/codec"
)

func ExampleObfuscate() {
	display := codec.Obfuscate("secret")
	fmt.Println(display)
	fmt.Println(codec.Deobfuscate(display))
	// Output:
	// terces
	// secret
}
