// Command hashpw prints a bcrypt hash as a .env line for ADMIN_PASSWORD_HASH.
// The value is single quoted so godotenv does not expand the "$" in the hash.
//
//	hashpw 'the admin password'
//	echo -n 'the admin password' | hashpw
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"peer_review/internal/adapters/observability"
)

func main() {
	log.Logger = observability.NewLogger(os.Getenv("APP_ENV"), "")

	var pw string
	if len(os.Args) > 1 {
		pw = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatal().Err(err).Msg("read password from stdin failed")
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if pw == "" {
		log.Fatal().Msg("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash failed")
	}
	fmt.Println(envLine(hash))
}

func envLine(hash []byte) string {
	return fmt.Sprintf("ADMIN_PASSWORD_HASH='%s'", hash)
}
