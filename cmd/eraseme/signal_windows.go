//go:build windows

package main

import "os"

// Windows has no SIGHUP; the selection is reloaded through the control API.
var reloadSignals []os.Signal

func isReload(os.Signal) bool { return false }
