package cli

import (
	"flag"
	"fmt"
)

func newMigrateCommand(env *Env) *Command {
	return newCommand(env, "migrate", "Apply pending schema migrations", func(fs *flag.FlagSet) func(*Deps) error {
		return func(deps *Deps) error {
			if err := deps.Store.Migrate(env.Ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(env.Out, "Migrations applied")
			return nil
		}
	})
}
