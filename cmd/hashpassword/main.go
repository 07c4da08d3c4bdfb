package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/vaultcast/storefront-backend/pkg/config"
	"github.com/vaultcast/storefront-backend/pkg/logger"
	"github.com/vaultcast/storefront-backend/pkg/security"
)

// hashpassword prints an argon2id hash for STOREFRONT_ADMIN_PASSWORD_HASH.
// The password is read from stdin, or generated with -generate.
func main() {
	generate := flag.Bool("generate", false, "generate a random password instead of reading stdin")
	length := flag.Int("length", 24, "generated password length")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "hashpassword"})
	ctx := context.Background()
	_ = godotenv.Load()

	var passwordCfg config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &passwordCfg); err != nil {
		logg.Error(ctx, "failed to load password config", err)
		os.Exit(1)
	}

	password, err := readPassword(*generate, *length)
	if err != nil {
		logg.Error(ctx, "failed to read password", err)
		os.Exit(1)
	}

	hash, err := security.NewHasher(passwordCfg).Hash(password)
	if err != nil {
		logg.Error(ctx, "failed to hash password", err)
		os.Exit(1)
	}

	if *generate {
		fmt.Fprintln(os.Stderr, "generated password:", password)
	}
	fmt.Println(hash)
}

func readPassword(generate bool, length int) (string, error) {
	if generate {
		return security.GeneratePassword(length)
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	return password, nil
}
