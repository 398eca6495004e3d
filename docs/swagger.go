// Package docs provides Swagger documentation for the API.
package docs

// @title xreacher Dashboard Gateway API
// @version 1.0
// @description Gateway between the xreacher dashboard and the outreach backend: account linking, campaign drafts and targeting progress
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.one-green.io/support
// @contact.email support@one-green.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
