package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	appenrolement "github.com/jhoicas/Enrolement-api/internal/application/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/application/export"
	"github.com/jhoicas/Enrolement-api/internal/bootstrap"
	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	infrapdf "github.com/jhoicas/Enrolement-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/Enrolement-api/pkg/config"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// cli dependencias de los comandos; los tests sustituyen la carga de configuración.
type cli struct {
	out        io.Writer
	loadConfig func() (*config.Config, error)
	log        *logger.Logger
}

func newCLI(out io.Writer) *cli {
	return &cli{out: out, loadConfig: config.Load, log: logger.Nop()}
}

// withLocal abre solo el registro local: no requiere almacén remoto.
func (c *cli) withLocal(fn func(cfg *config.Config, local *sqlite.LocalEnrolementRepo) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	local, err := sqlite.Open(cfg.Local.SQLitePath)
	if err != nil {
		return err
	}
	defer local.Close()
	return fn(cfg, local)
}

// withApp arma el grafo completo (registro local + almacén remoto).
func (c *cli) withApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	app, err := bootstrap.New(ctx, cfg, c.log)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func (c *cli) rootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "enrolectl",
		Short:         "Operación del registro local de enrôlements",
		Long:          "enrolectl inspecciona el registro local, exporta a PDF, reintenta la sincronización y muestra estadísticas.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.log = logger.New(logger.Config{Env: "development", Level: "debug"})
			}
		},
	}
	root.SetOut(c.out)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log detallado en stdout")

	local := &cobra.Command{Use: "local", Short: "Registro local de envíos"}
	local.AddCommand(c.localListCmd(), c.localRemoveCmd())

	sync := &cobra.Command{Use: "sync", Short: "Sincronización con el almacén remoto"}
	sync.AddCommand(c.syncRetryCmd())

	root.AddCommand(local, sync, c.exportCmd(), c.statsCmd(), c.submitCmd())
	return root
}

// ── Registro local ──────────────────────────────────────────────────────────

func (c *cli) localListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista las copias locales en orden de envío",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withLocal(func(_ *config.Config, local *sqlite.LocalEnrolementRepo) error {
				list, err := appenrolement.NewLocalUseCase(local).List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(c.out, "Aucun enrôlement.")
					return nil
				}
				tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNOM\tCOMPTEUR\tTYPE\tUSAGE\tDATE\tSYNC")
				for _, l := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						l.EffectiveID(), l.Name, l.MeterNumber, l.MeterType, l.Usage,
						l.CreatedAt.Local().Format("02/01/2006 15:04"), l.SyncStatus)
				}
				return tw.Flush()
			})
		},
	}
}

func (c *cli) localRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <local-id>",
		Short: "Borra una copia local",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLocal(func(_ *config.Config, local *sqlite.LocalEnrolementRepo) error {
				if err := appenrolement.NewLocalUseCase(local).Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "copia local %s borrada\n", args[0])
				return nil
			})
		},
	}
}

// ── Exportación ─────────────────────────────────────────────────────────────

func (c *cli) exportCmd() *cobra.Command {
	var name, outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta el registro local a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withLocal(func(cfg *config.Config, local *sqlite.LocalEnrolementRepo) error {
				uc := export.NewExportUseCase(local, infrapdf.NewMarotoPDFGenerator(nil), cfg.Export.DefaultName)
				pdf, fileName, err := uc.ExportLocal(cmd.Context(), name)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("crear directorio de salida: %w", err)
				}
				path := filepath.Join(outDir, fileName)
				if err := os.WriteFile(path, pdf, 0o644); err != nil {
					return fmt.Errorf("escribir PDF: %w", err)
				}
				fmt.Fprintf(c.out, "PDF généré: %s (%d octets)\n", path, len(pdf))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "nombre del archivo (por defecto EXPORT_DEFAULT_NAME)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directorio de salida")
	return cmd
}

// ── Remoto ──────────────────────────────────────────────────────────────────

func (c *cli) syncRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Reintenta el envío de las copias pendientes o fallidas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(app *bootstrap.App) error {
				report, err := app.Synchronizer.RetryPending(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "intentados: %d, confirmados: %d, fallidos: %d\n",
					report.Attempted, report.Committed, report.Failed)
				if report.Failed > 0 {
					return fmt.Errorf("%d copias siguen sin sincronizar", report.Failed)
				}
				return nil
			})
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Resumen del almacén remoto y copias pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(app *bootstrap.App) error {
				s, err := app.DashboardUC.GetSummary(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "Période\t%s\n", s.DateLabel)
				fmt.Fprintf(tw, "Total\t%d\n", s.Total)
				fmt.Fprintf(tw, "Prépayé\t%d\n", s.Prepaid)
				fmt.Fprintf(tw, "Postpayé\t%d\n", s.Postpaid)
				fmt.Fprintf(tw, "Aujourd'hui\t%d\n", s.Today)
				fmt.Fprintf(tw, "En attente de synchronisation\t%d\n", s.PendingSync)
				return tw.Flush()
			})
		},
	}
}

func (c *cli) submitCmd() *cobra.Command {
	var in rules.Input
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Envía un enrôlement (copia local + almacén remoto)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(app *bootstrap.App) error {
				outcome, err := app.Synchronizer.Submit(cmd.Context(), in)
				if err != nil {
					return err
				}
				if outcome.Status == appenrolement.OutcomeCommitted {
					fmt.Fprintln(c.out, outcome.Confirmation())
					return nil
				}
				fmt.Fprintf(c.out, "guardado solo en local (%s): %v\n", outcome.Local.LocalID, outcome.Err)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "nombre del cliente")
	f.StringVar(&in.Phone, "phone", "", "teléfono (6XXXXXXXX)")
	f.StringVar(&in.Email, "email", "", "correo")
	f.StringVar(&in.MeterType, "meter-type", "", "prepaid | postpaid")
	f.StringVar(&in.MeterNumber, "meter-number", "", "número de compteur")
	f.StringVar(&in.Address, "address", "", "quartier")
	f.StringVar(&in.Usage, "usage", "", "domicile | entreprise | campagne | appartement")
	return cmd
}

// execute corre el árbol de comandos con un límite global de tiempo.
func (c *cli) execute(args []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	root := c.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
