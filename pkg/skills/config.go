package skills

import (
	"context"

	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/spf13/viper"
)

// DiscoveryFromConfig builds a Discovery from the skills.dirs setting,
// falling back to the default directories when it is unset.
func DiscoveryFromConfig(ctx context.Context) (*Discovery, error) {
	dirs := viper.GetStringSlice("skills.dirs")
	if len(dirs) == 0 {
		return NewDiscovery()
	}
	logger.G(ctx).WithField("dirs", dirs).Debug("using configured skill directories")
	return NewDiscovery(WithSkillDirs(dirs...))
}
