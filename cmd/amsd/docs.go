package main

// General API documentation for swaggo. Run `swag init -g cmd/amsd/docs.go` to
// generate docs, then build with `-tags=swagger` to serve them.
//
// @title           amsd API
// @version         1.0
// @description     HTTP API for automated material system (AMS/MMU) control and observation.
//
// @contact.name   amsd maintainers
// @contact.url    https://github.com/your-org/amsd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
