package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/artxchange/artx-api/cmd/app"
)

// @title          ArtXchange API
// @version        1.0
// @description    Eligibility and rate limits for the ArtXchange marketplace.
// @termsOfService  http://swagger.io/terms/
// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
//
// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
func main() {
	if err := app.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
