// Package prelude registers every driver provider.
package prelude

import (
	_ "toolsmith/pkg/driver/env/native"
	_ "toolsmith/pkg/driver/exec/native"
	_ "toolsmith/pkg/driver/fetchurl/fetchurl"
	_ "toolsmith/pkg/driver/httpclient/native"
	_ "toolsmith/pkg/driver/pkgmgr/apt"
	_ "toolsmith/pkg/driver/pkgmgr/brew"
	_ "toolsmith/pkg/driver/pkgmgr/choco"
	_ "toolsmith/pkg/driver/pkgmgr/dnf"
	_ "toolsmith/pkg/driver/pkgmgr/pacman"
	_ "toolsmith/pkg/driver/shim/bash"
	_ "toolsmith/pkg/driver/shim/cmd"
)
