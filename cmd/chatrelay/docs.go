package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           chatrelay API
// @version         1.0
// @description     HTTP relay for an OpenAI-compatible hosted LLM provider: streaming chat, model catalog and conversation archive.
//
// @contact.name   chatrelay maintainers
// @contact.url    https://github.com/your-org/chatrelay
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
