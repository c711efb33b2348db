package pkg

import "fmt"

var (
	// Set by the makefile at build time.
	ShardrouteVersion = "devel"
	GitRevision       = "devel"

	ShardrouteVersionRevision = fmt.Sprintf("%s-%s", ShardrouteVersion, GitRevision)
)
