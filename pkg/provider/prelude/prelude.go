package prelude

import (
	_ "toolsmith/pkg/driver/prelude"
	_ "toolsmith/pkg/envsink/github"
	_ "toolsmith/pkg/envsink/process"
	_ "toolsmith/pkg/envsink/profile"
)
