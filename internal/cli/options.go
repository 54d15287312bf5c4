package cli

// Options is the root command. The struct tags are interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Create  *CreateCmd  `command:"create"  description:"Chat with the creator agent to draft a market agreement"`
	Resolve *ResolveCmd `command:"resolve" description:"Resolve a market read from a YAML or JSON file"`
	Serve   *ServeCmd   `command:"serve"   description:"Start the HTTP API"`
}

// Init instantiates the sub-command named by the first argument so the parser can populate it.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "create":
		o.Create = &CreateCmd{}
	case "resolve":
		o.Resolve = &ResolveCmd{}
	case "serve":
		o.Serve = &ServeCmd{}
	}
}
