/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tomoncle/datastudy"
	"github.com/tomoncle/datastudy/config"
	"github.com/tomoncle/datastudy/database"
	"github.com/tomoncle/datastudy/domain"
	"github.com/tomoncle/datastudy/repository"
	"github.com/tomoncle/datastudy/utils"
	"github.com/uptrace/bun"
)

var logger = utils.NewLogger("CLI")

type cli struct {
	configPath string
	auditor    string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "datastudy",
		Short:         "Repository pattern study over bun",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			cfg.ApplyLogging()
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $DATASTUDY_CONFIG or "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&c.auditor, "auditor", "", "name recorded in created_by/last_modified_by")

	root.AddCommand(
		c.migrateCommand(),
		c.seedCommand(),
		c.healthCommand(),
		c.membersCommand(),
		c.itemsCommand(),
	)
	return root
}

func (c *cli) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if c.auditor != "" {
		ctx = domain.WithAuditor(ctx, c.auditor)
	}
	return ctx
}

// open initializes the global database. Startup migrations follow the
// config unless migrate forces them.
func (c *cli) open(ctx context.Context, migrate bool) (*bun.DB, error) {
	dbCfg := *c.cfg.ConfigLoader()
	if migrate {
		dbCfg.DataMigrateConfig.EnableMigrateOnStartup = true
	}
	db, err := database.InitDB(ctx, &dbCfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func closeDB() {
	if err := database.CloseDB(); err != nil {
		logger.WithError(err).Warn("failed to close database")
	}
}

func (c *cli) migrateCommand() *cobra.Command {
	var rollback string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables of the registered models and apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.context(cmd)
			db, err := c.open(ctx, rollback == "")
			if err != nil {
				return err
			}
			defer closeDB()

			mm := database.NewMigrationManager(db, database.GetLogger(), c.cfg.ConfigLoader())
			if rollback != "" {
				return mm.RollbackMigration(ctx, rollback)
			}
			applied, err := mm.GetAppliedMigrations(ctx)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
			for _, m := range applied {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&rollback, "rollback", "", "roll back the given migration version")
	return cmd
}

func (c *cli) seedCommand() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Execute the SQL seed files of an environment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.context(cmd)
			if _, err := c.open(ctx, false); err != nil {
				return err
			}
			defer closeDB()

			if env != "" {
				return database.InitDataWithSQL(ctx, env)
			}
			return database.InitData(ctx)
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment directory under <filepath>/environments (default from config)")
	return cmd
}

func (c *cli) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity and print pool statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.context(cmd)
			if _, err := c.open(ctx, false); err != nil {
				return err
			}
			defer closeDB()

			status := database.GetHealthStatus(ctx)
			stats := database.GetDatabaseStats()
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "healthy\t%t\n", status.Healthy)
			fmt.Fprintf(w, "response time\t%s\n", status.ResponseTime)
			fmt.Fprintf(w, "open conns\t%d\n", stats.OpenConns)
			fmt.Fprintf(w, "in use\t%d\n", stats.InUse)
			fmt.Fprintf(w, "idle\t%d\n", stats.Idle)
			if status.LastError != "" {
				fmt.Fprintf(w, "last error\t%s\n", status.LastError)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if !status.Healthy {
				return fmt.Errorf("database is unhealthy")
			}
			return nil
		},
	}
}

func (c *cli) membersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Member queries",
	}

	var username, team string
	var age int
	add := &cobra.Command{
		Use:   "add",
		Short: "Insert a member, optionally joining a team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.context(cmd)
			if _, err := c.open(ctx, false); err != nil {
				return err
			}
			defer closeDB()

			svc := datastudy.NewMemberService()
			member := domain.NewMemberWithAge(username, age)
			if err := svc.Members().Save(ctx, member); err != nil {
				return err
			}
			if team != "" {
				var err error
				if member, err = svc.JoinTeam(ctx, member.ID, team); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), member)
			return nil
		},
	}
	add.Flags().StringVar(&username, "username", "", "member username")
	add.Flags().IntVar(&age, "age", 0, "member age")
	add.Flags().StringVar(&team, "team", "", "team name, created when missing")
	_ = add.MarkFlagRequired("username")

	var pageAge, page, size int
	pageCmd := &cobra.Command{
		Use:   "page",
		Short: "Page members of an age, ordered by username descending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.context(cmd)
			if _, err := c.open(ctx, false); err != nil {
				return err
			}
			defer closeDB()

			result, err := datastudy.NewMemberService().PageByAge(ctx, pageAge, page, size)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			writeDtos(w, result.Content)
			fmt.Fprintf(w, "page %d/%d\ttotal %d\n", result.Number+1, max(result.TotalPages(), 1), result.TotalElements)
			return w.Flush()
		},
	}
	pageCmd.Flags().IntVar(&pageAge, "age", 0, "member age")
	pageCmd.Flags().IntVar(&page, "page", 0, "zero-based page number")
	pageCmd.Flags().IntVar(&size, "size", 10, "page size")

	var bulkAge int
	bulk := &cobra.Command{
		Use:   "bulk-age-plus",
		Short: "Add one year to every member aged --age or older",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.context(cmd)
			if _, err := c.open(ctx, false); err != nil {
				return err
			}
			defer closeDB()

			n, err := datastudy.NewMemberService().AgeUp(ctx, bulkAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d members updated\n", n)
			return nil
		},
	}
	bulk.Flags().IntVar(&bulkAge, "age", 20, "minimum age")

	dto := &cobra.Command{
		Use:   "dto",
		Short: "List members joined with their team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.context(cmd)
			if _, err := c.open(ctx, false); err != nil {
				return err
			}
			defer closeDB()

			dtos, err := datastudy.NewMemberService().MemberDtos(ctx)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			writeDtos(w, dtos)
			return w.Flush()
		},
	}

	cmd.AddCommand(add, pageCmd, bulk, dto)
	return cmd
}

func (c *cli) itemsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Versioned items with caller-assigned ids",
	}
	create := &cobra.Command{
		Use:   "create [id]",
		Short: "Insert an item; a random UUID is used when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.context(cmd)
			db, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer closeDB()

			id := uuid.NewString()
			if len(args) == 1 {
				id = args[0]
			}
			item := domain.NewItem(id)
			if err := repository.NewItemRepository(db).Save(ctx, item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tversion %d\n", item.ID, item.Version)
			return nil
		},
	}
	touch := &cobra.Command{
		Use:   "touch <id>",
		Short: "Bump the version of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.context(cmd)
			db, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer closeDB()

			items := repository.NewItemRepository(db)
			item, err := items.GetOne(ctx, args[0])
			if err != nil {
				return err
			}
			if err := items.Save(ctx, item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tversion %d\n", item.ID, item.Version)
			return nil
		},
	}
	cmd.AddCommand(create, touch)
	return cmd
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func writeDtos(w io.Writer, dtos []*domain.MemberDto) {
	fmt.Fprintln(w, "ID\tUSERNAME\tTEAM")
	for _, d := range dtos {
		fmt.Fprintf(w, "%d\t%s\t%s\n", d.ID, d.Username, d.TeamName)
	}
}
