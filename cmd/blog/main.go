// Command blog runs the multi-user blog.
//
//	blog init-db   # once, creates data/blog.db
//	blog serve     # http://localhost:8080
package main

import (
	"context"

	"github.com/sakif/blog/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
