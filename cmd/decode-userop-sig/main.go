// Command decode-userop-sig inspects a raw ECDSA signature produced for a
// UserOperation hash (65 bytes: r || s || v, no EIP-191 envelope) and
// prints its components, mirroring the teacher's decode_signature tool but
// for this wallet's raw-hash signing format rather than WebAuthn assertions.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

func main() {
	sigHex := flag.String("sig", "", "hex-encoded signature (0x-prefixed, 65 bytes: r||s||v)")
	flag.Parse()

	if *sigHex == "" {
		log.Fatal("usage: decode-userop-sig -sig 0x<130 hex chars>")
	}

	sig, err := hexutil.Decode(*sigHex)
	if err != nil {
		log.Fatalf("failed to decode signature: %v", err)
	}

	fmt.Printf("Total signature length: %d bytes\n\n", len(sig))

	if len(sig) != 65 {
		log.Fatalf("expected a 65-byte r||s||v signature, got %d bytes", len(sig))
	}

	r := sig[0:32]
	s := sig[32:64]
	v := sig[64]

	fmt.Printf("r: 0x%x\n", r)
	fmt.Printf("s: 0x%x\n", s)
	fmt.Printf("v: %d\n\n", v)

	recoveryID := v
	if recoveryID >= 27 {
		recoveryID -= 27
	}
	fmt.Printf("recovery id (normalized): %d\n", recoveryID)
	if recoveryID > 1 {
		fmt.Println("warning: recovery id out of [0,1] range after normalization")
	}

	fmt.Println("\nThe EntryPoint recovers the signer by running ecrecover against the")
	fmt.Println("UserOperation hash directly — no EIP-191 \"\\x19Ethereum Signed Message\"")
	fmt.Println("prefix is applied, unlike a personal_sign signature.")
}
