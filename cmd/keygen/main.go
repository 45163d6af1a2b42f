// Command keygen generates a fresh master encryption key and writes it to
// the .env file, preserving any other entries already there.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloudtab/internal/crypto"
)

func main() {
	envFile := flag.String("env", ".env", "env file to write ENCRYPTION_KEY into")
	printOnly := flag.Bool("print", false, "print the key instead of writing the env file")
	flag.Parse()

	key, err := crypto.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	hexKey := hex.EncodeToString(key)
	fmt.Println(hexKey)

	if *printOnly {
		return
	}

	if err := writeEnvKey(*envFile, hexKey); err != nil {
		log.Fatalf("Failed to update %s: %v", *envFile, err)
	}
	fmt.Printf("ENCRYPTION_KEY written to %s\n", *envFile)
	fmt.Println("Restarting the server invalidates every session encrypted under the old key.")
}

func writeEnvKey(path, hexKey string) error {
	line := "ENCRYPTION_KEY=" + hexKey

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return os.WriteFile(path, []byte(line+"\n"), 0o600)
	}
	if err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	replaced := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "ENCRYPTION_KEY=") {
			lines[i] = line
			replaced = true
		}
	}
	if !replaced {
		lines = append(lines, line)
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}
