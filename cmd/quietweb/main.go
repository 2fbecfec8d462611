package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quietweb/internal/agent"
	"quietweb/internal/blocker"
	"quietweb/internal/catalog"
	"quietweb/internal/config"
	"quietweb/internal/database"
	"quietweb/internal/notify"
	"quietweb/internal/service"
	"quietweb/internal/session"
	"quietweb/internal/ui"
	"quietweb/pkg/logger"
)

// app bundles the wired components shared by every command
type app struct {
	config      *config.Settings
	log         *logger.Logger
	store       *database.Store
	catalog     *catalog.Catalog
	reloader    *blocker.ExecReloader
	publisher   *blocker.Publisher
	coordinator *blocker.Coordinator
	scheduler   *notify.Scheduler
	deliverer   *notify.Deliverer
	manager     *session.Manager
	agent       *agent.Agent
}

// newApp wires the full component graph from configuration
func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		LogDir:     cfg.LogPath,
		EnableFile: cfg.LoggingEnabled,
		Level:      cfg.LogLevel,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	store, err := database.NewStore(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cat := catalog.Load(log)
	reloader := blocker.NewExecReloader(cfg.ReloadCommand, cfg.StatusCommand)
	publisher := blocker.NewPublisher(cfg.SharedDir, reloader, log)
	publisher.InitializeStubConcerns()

	coordinator := blocker.NewCoordinator(store, cat, publisher, log)
	scheduler := notify.NewScheduler(store, log)
	deliverer := notify.NewDeliverer(store, cfg.NotifyCommand, log)
	manager := session.NewManager(store, scheduler, coordinator, log)

	return &app{
		config:      cfg,
		log:         log,
		store:       store,
		catalog:     cat,
		reloader:    reloader,
		publisher:   publisher,
		coordinator: coordinator,
		scheduler:   scheduler,
		deliverer:   deliverer,
		manager:     manager,
		agent:       agent.New(cfg, store, manager, deliverer, log),
	}, nil
}

// close releases the app's resources
func (a *app) close() {
	a.store.Close()
	a.log.Close()
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "quietweb",
		Short: "QuietWeb - Focus sessions that block distracting sites",
		Long: `QuietWeb runs timed focus sessions. While a session is active, the hosts
on its blocklists are compiled into content-blocker rules and published
for the platform's web filter to enforce.`,
		Run: func(cmd *cobra.Command, args []string) {
			a, err := newApp(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer a.close()

			menu := ui.NewMenu(a.config, a.store, a.catalog, a.manager,
				a.scheduler, a.coordinator, a.reloader, a.log)
			menu.Run()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(createStatusCommand(&configPath))
	rootCmd.AddCommand(createApplyCommand(&configPath))
	rootCmd.AddCommand(createSweepCommand(&configPath))
	rootCmd.AddCommand(createSessionsCommand(&configPath))
	rootCmd.AddCommand(createBlocklistsCommand(&configPath))
	rootCmd.AddCommand(createDistractionsCommand(&configPath))
	rootCmd.AddCommand(createServiceCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp wires the app for a subcommand and tears it down afterwards
func withApp(configPath *string, fn func(a *app) error) error {
	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// createStatusCommand prints the current enforcement state
func createStatusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active sessions and the effective block set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				sessions, err := a.store.Sessions()
				if err != nil {
					return err
				}

				now := time.Now()
				active := 0
				for _, s := range sessions {
					if s.IsActive {
						active++
						fmt.Printf("Active: %s (%s left)\n", s.Name, session.Remaining(s, now))
					}
				}
				if active == 0 {
					fmt.Println("No active sessions.")
				}

				resolution, err := a.coordinator.Resolve()
				if err != nil {
					return err
				}
				if resolution.TotalBlock {
					fmt.Println("Blocking: everything (total block)")
				} else {
					fmt.Printf("Blocking: %d hosts\n", len(resolution.Hosts))
				}

				fmt.Printf("Rule file: %s\n",
					filepath.Join(a.config.SharedDir, blocker.ConcernDistractions.FileName()))

				enabled, err := a.reloader.EnabledState(blocker.ConcernDistractions.Identifier())
				if err != nil {
					fmt.Printf("Filter state: unknown (%v)\n", err)
				} else if enabled {
					fmt.Println("Filter state: enabled")
				} else {
					fmt.Println("Filter state: disabled")
				}
				return nil
			})
		},
	}
}

// createApplyCommand re-runs the resolve and publish pipeline
func createApplyCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Recompute and publish the content-blocker rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				if err := a.coordinator.Apply(); err != nil {
					return err
				}
				fmt.Println("Rules published.")
				return nil
			})
		},
	}
}

// createSweepCommand runs the maintenance sweep once or in a loop
func createSweepCommand(configPath *string) *cobra.Command {
	var loop bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the maintenance sweep",
		Long: `The sweep starts sessions whose window has opened, ends sessions past
their window, removes expired one-shot sessions and delivers any due
notifications.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				if interval > 0 {
					a.config.SweepInterval = config.Duration(interval)
				}
				if loop {
					return a.agent.RunLoop(cmd.Context())
				}
				return a.agent.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&loop, "loop", false, "Keep sweeping at the configured interval")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Override the sweep interval")
	return cmd
}

// createSessionsCommand manages sessions from the command line
func createSessionsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List and control sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every session by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				sessions, err := a.store.Sessions()
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Println("No sessions.")
					return nil
				}

				now := time.Now()
				for _, c := range session.Categorize(sessions, now) {
					switch c.Section {
					case session.SectionActive:
						fmt.Printf("[%s] %s (%s left)\n", c.Section, c.Session.Name, session.Remaining(c.Session, now))
					case session.SectionRecurring:
						fmt.Printf("[%s] %s (%s)\n", c.Section, c.Session.Name, session.ScheduleSummary(c.Session))
					case session.SectionUpcoming:
						fmt.Printf("[%s] %s (starts %s)\n", c.Section, c.Session.Name, c.Session.StartTime.Format("Mon Jan 2 3:04PM"))
					default:
						fmt.Printf("[%s] %s\n", c.Section, c.Session.Name)
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "start <name>",
		Short: "Start a session by name or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				s, err := findSession(a.store, args[0])
				if err != nil {
					return err
				}
				if err := a.manager.Start(s.ID); err != nil {
					return err
				}
				fmt.Printf("Session %q started.\n", s.Name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "end <name>",
		Short: "End a session by name or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				s, err := findSession(a.store, args[0])
				if err != nil {
					return err
				}
				if err := a.manager.End(s.ID); err != nil {
					return err
				}
				fmt.Printf("Session %q ended.\n", s.Name)
				return nil
			})
		},
	})

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a session from the command line",
		Long: `Creates an immediate session with --for, or a scheduled one with --at
and --for. Recurring sessions are created from the interactive menu.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				blocklistNames, _ := cmd.Flags().GetStringSlice("blocklist")
				length, _ := cmd.Flags().GetDuration("for")
				startAt, _ := cmd.Flags().GetString("at")

				if len(blocklistNames) == 0 {
					return fmt.Errorf("a session needs at least one --blocklist")
				}
				if length <= 0 {
					return fmt.Errorf("--for must be a positive duration")
				}

				var ids database.StringList
				for _, name := range blocklistNames {
					b, err := findBlocklist(a.store, name)
					if err != nil {
						return err
					}
					ids = append(ids, b.ID)
				}

				now := time.Now()
				s := &database.Session{
					Name:       args[0],
					Blocklists: ids,
					Type:       database.SessionNow,
					StartTime:  now,
					EndTime:    now.Add(length),
				}
				if startAt != "" {
					start, err := time.ParseInLocation("15:04", startAt, now.Location())
					if err != nil {
						return fmt.Errorf("--at must look like 21:30: %w", err)
					}
					start = time.Date(now.Year(), now.Month(), now.Day(),
						start.Hour(), start.Minute(), 0, 0, now.Location())
					if start.Before(now) {
						start = start.AddDate(0, 0, 1)
					}
					s.Type = database.SessionLater
					s.StartTime = start
					s.EndTime = start.Add(length)
				}

				if err := a.store.CreateSession(s); err != nil {
					return err
				}

				if s.Type == database.SessionNow {
					if err := a.manager.Start(s.ID); err != nil {
						return err
					}
					fmt.Printf("Session %q started, ends at %s.\n", s.Name, s.EndTime.Format("3:04PM"))
					return nil
				}
				if err := a.scheduler.ScheduleReminder(*s); err != nil {
					a.log.Warnf("Failed to schedule reminder for %q: %v", s.Name, err)
				}
				fmt.Printf("Session %q scheduled for %s.\n", s.Name, s.StartTime.Format("Mon Jan 2 3:04PM"))
				return nil
			})
		},
	}
	addCmd.Flags().StringSlice("blocklist", nil, "Blocklist name or id (repeatable)")
	addCmd.Flags().Duration("for", 0, "Session length, e.g. 45m or 2h")
	addCmd.Flags().String("at", "", "Start time of day, e.g. 21:30 (defaults to now)")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a session by name or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				s, err := findSession(a.store, args[0])
				if err != nil {
					return err
				}
				if err := a.manager.End(s.ID); err != nil {
					return err
				}
				fmt.Printf("Session %q deleted.\n", s.Name)
				return nil
			})
		},
	})

	return cmd
}

// createBlocklistsCommand lists blocklists from the command line
func createBlocklistsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocklists",
		Short: "Inspect blocklists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every blocklist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				blocklists, err := a.store.Blocklists()
				if err != nil {
					return err
				}
				if len(blocklists) == 0 {
					fmt.Println("No blocklists.")
					return nil
				}
				for _, b := range blocklists {
					if b.TotalBlockEnabled {
						fmt.Printf("%s: total block\n", b.Name)
						continue
					}
					fmt.Printf("%s: %d hosts\n", b.Name, b.HostCount)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create an empty blocklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				b := &database.Blocklist{Name: args[0]}
				if err := a.store.CreateBlocklist(b); err != nil {
					return err
				}
				fmt.Printf("Blocklist %q created; fill it from the interactive menu.\n", b.Name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a blocklist and detach it from every session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				b, err := findBlocklist(a.store, args[0])
				if err != nil {
					return err
				}
				if err := a.store.DeleteBlocklist(b.ID); err != nil {
					return err
				}
				if err := a.coordinator.Apply(); err != nil {
					return err
				}
				fmt.Printf("Blocklist %q deleted.\n", b.Name)
				return nil
			})
		},
	})

	return cmd
}

// createDistractionsCommand manages the personal host list
func createDistractionsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distractions",
		Short: "Manage your personal distraction hosts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your distraction hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				hosts, err := a.store.UserDistractions()
				if err != nil {
					return err
				}
				for _, host := range hosts {
					fmt.Println(host)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <host>",
		Short: "Add a distraction host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				host := strings.TrimSpace(args[0])
				if err := blocker.ValidateHost(host); err != nil {
					return err
				}
				if err := a.store.AddUserDistraction(host); err != nil {
					if errors.Is(err, database.ErrDuplicateHost) {
						return fmt.Errorf("%q is already on your list", host)
					}
					return err
				}
				fmt.Printf("Added %q.\n", host)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <old-host> <new-host>",
		Short: "Rename a distraction host everywhere",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				newHost := strings.TrimSpace(args[1])
				if err := blocker.ValidateHost(newHost); err != nil {
					return err
				}
				if err := a.store.RenameUserDistraction(strings.TrimSpace(args[0]), newHost); err != nil {
					return err
				}
				if err := a.coordinator.Apply(); err != nil {
					return err
				}
				fmt.Printf("Renamed %q to %q.\n", args[0], newHost)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <host>",
		Short: "Remove a distraction host everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				host := strings.TrimSpace(args[0])
				if err := a.store.RemoveUserDistraction(host); err != nil {
					return err
				}
				if err := a.coordinator.Apply(); err != nil {
					return err
				}
				fmt.Printf("Removed %q.\n", host)
				return nil
			})
		},
	})

	return cmd
}

// createServiceCommand manages the background agent's systemd unit
func createServiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the background agent service",
	}

	var agentPath string
	install := &cobra.Command{
		Use:   "install",
		Short: "Install and start the agent as a user service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.Install(agentPath); err != nil {
				return err
			}
			fmt.Println("Agent service installed and started.")
			return nil
		},
	}
	install.Flags().StringVar(&agentPath, "agent-path", "", "Path to the quietweb-agent binary")
	cmd.AddCommand(install)

	cmd.AddCommand(&cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the agent service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.Uninstall(); err != nil {
				return err
			}
			fmt.Println("Agent service removed.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the agent service state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !service.IsInstalled() {
				fmt.Println("Agent service is not installed.")
				return nil
			}
			state, err := service.Status()
			if err != nil {
				return err
			}
			fmt.Printf("Agent service: %s\n", state)
			return nil
		},
	})

	return cmd
}

// findSession resolves a session by exact id or unique name
func findSession(store *database.Store, key string) (*database.Session, error) {
	if s, err := store.Session(key); err == nil {
		return s, nil
	}

	sessions, err := store.Sessions()
	if err != nil {
		return nil, err
	}

	var match *database.Session
	for i, s := range sessions {
		if strings.EqualFold(s.Name, key) {
			if match != nil {
				return nil, fmt.Errorf("multiple sessions named %q, use the id", key)
			}
			match = &sessions[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no session named %q", key)
	}
	return match, nil
}

// findBlocklist resolves a blocklist by exact id or unique name
func findBlocklist(store *database.Store, key string) (*database.Blocklist, error) {
	if b, err := store.Blocklist(key); err == nil {
		return b, nil
	}

	blocklists, err := store.Blocklists()
	if err != nil {
		return nil, err
	}

	var match *database.Blocklist
	for i, b := range blocklists {
		if strings.EqualFold(b.Name, key) {
			if match != nil {
				return nil, fmt.Errorf("multiple blocklists named %q, use the id", key)
			}
			match = &blocklists[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no blocklist named %q", key)
	}
	return match, nil
}
