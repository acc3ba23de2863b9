// main is the entry point for the catiq CLI.
package main

import (
	"github.com/huangsam/catiq/cmd"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/iocache"
)

func main() {
	defer iocache.CloseStores()

	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Cannot stop profiling", perr)
	}
	if err != nil {
		iocache.CloseStores()
		contract.LogFatal("Cannot run catiq", err)
	}
}
