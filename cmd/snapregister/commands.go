package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapregister/snapregister/internal/auth"
	"github.com/snapregister/snapregister/internal/config"
	"github.com/snapregister/snapregister/internal/storage"
	"github.com/snapregister/snapregister/internal/upload"
	"github.com/snapregister/snapregister/internal/warranty"
)

// --- login / signup / logout / whoami ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store the API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password are required")
		}

		client, sess, _, err := newClient()
		if err != nil {
			return err
		}

		user, err := auth.NewService(client, sess).Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		printSuccess("Logged in as %s", user.Email)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and store the API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password are required")
		}

		client, sess, _, err := newClient()
		if err != nil {
			return err
		}

		user, err := auth.NewService(client, sess).Signup(cmd.Context(), name, email, password)
		if err != nil {
			return err
		}
		printSuccess("Account created for %s", user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored API token and session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, sess, _, err := newClient()
		if err != nil {
			return err
		}
		auth.NewService(client, sess).Logout(cmd.Context())
		printSuccess("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, sess, _, err := newClient()
		if err != nil {
			return err
		}
		user, err := auth.NewService(client, sess).Me(cmd.Context())
		if err != nil {
			return err
		}
		printField("Email", "%s", user.Email)
		if user.Name != "" {
			printField("Name", "%s", user.Name)
		}
		printField("ID", "%s", user.ID)
		return nil
	},
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Upload warranty document photos for analysis",
	Long: `Upload warranty document photos for analysis.

Examples:
  snapregister analyze --serial serial.jpg --receipt receipt.jpg
  snapregister analyze --product tv.jpg --warranty-card card.jpg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		slots := warranty.Slots{}
		slots.SerialNumber, _ = cmd.Flags().GetString("serial")
		slots.WarrantyCard, _ = cmd.Flags().GetString("warranty-card")
		slots.Receipt, _ = cmd.Flags().GetString("receipt")
		slots.ProductPhoto, _ = cmd.Flags().GetString("product")

		client, _, cfg, err := newClient()
		if err != nil {
			return err
		}

		analyzer := warranty.NewAnalyzer(client, warranty.Options{
			MaxDimension:   cfg.Image.MaxDimension,
			Quality:        cfg.Image.Quality,
			MaxUploadBytes: cfg.Image.MaxUploadBytes,
		})

		result := analyzer.Analyze(cmd.Context(), slots, progressLine)
		finishProgress()

		if !result.Success {
			printError("%s", result.Err)
			return fmt.Errorf("analysis failed")
		}

		printAnalysis(result.Data)

		// A successful response can omit the analysis payload; there is
		// nothing to save then.
		if result.Data != nil {
			if id, err := saveResult(cfg, result); err != nil {
				printWarning("could not save to history: %v", err)
			} else {
				printField("Saved", "%s", id)
			}
		}
		return nil
	},
}

func printAnalysis(a *warranty.Analysis) {
	if a == nil {
		printWarning("analysis succeeded but returned no extracted data")
		return
	}
	printSuccess("Analysis complete")
	printField("Brand", "%s", a.Brand)
	printField("Model", "%s", a.Model)
	printField("Serial", "%s", a.SerialNumber)
	printField("Purchased", "%s", a.PurchaseDate)
	printField("Warranty", "%s (until %s)", a.WarrantyPeriod, a.WarrantyEndDate)
	printField("Retailer", "%s", a.Retailer)
	printField("Price", "%s", a.Price)
	printField("Confidence", "%s", a.Confidence)
	if a.AdditionalInfo != "" {
		printField("Notes", "%s", a.AdditionalInfo)
	}
}

func saveResult(cfg config.Config, result warranty.Result) (string, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.SaveAnalysis(recordFrom(result))
}

func recordFrom(result warranty.Result) storage.AnalysisRecord {
	var slots []string
	for _, s := range []warranty.Slot{
		warranty.SlotSerialNumber, warranty.SlotWarrantyCard,
		warranty.SlotReceipt, warranty.SlotProductPhoto,
	} {
		if result.Uploaded[s] {
			slots = append(slots, s.String())
		}
	}
	a := result.Data
	if a == nil {
		return storage.AnalysisRecord{UploadedSlots: strings.Join(slots, ",")}
	}
	return storage.AnalysisRecord{
		Brand:           a.Brand,
		Model:           a.Model,
		SerialNumber:    a.SerialNumber,
		PurchaseDate:    a.PurchaseDate,
		WarrantyPeriod:  a.WarrantyPeriod,
		WarrantyEndDate: a.WarrantyEndDate,
		Retailer:        a.Retailer,
		Price:           a.Price,
		Confidence:      a.Confidence,
		AdditionalInfo:  a.AdditionalInfo,
		ExtractedAt:     a.ExtractedAt,
		UserID:          a.UserID,
		UploadedSlots:   strings.Join(slots, ","),
	}
}

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a single file to storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := newClient()
		if err != nil {
			return err
		}
		url, err := upload.ToStorage(cmd.Context(), client, upload.File{Path: args[0]}, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, url)
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved analyses",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.ListAnalyses(limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stdout, "no saved analyses")
			return nil
		}
		for _, rec := range records {
			fmt.Fprintf(os.Stdout, "%s  %s  %s %s  (%s)\n",
				rec.ID, rec.CreatedAt.Format(time.DateTime), rec.Brand, rec.Model, rec.Confidence)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one analysis as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.GetAnalysis(args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete one analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteAnalysis(args[0]); err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func openStore() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return storage.Open(cfg.Storage.DataDir)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config keys and values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, info := range config.ShowAll(cfg) {
			fmt.Fprintf(os.Stdout, "%-24s %s\n", info.Key, info.Value)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, info := range config.ShowAll(cfg) {
			if info.Key == args[0] {
				fmt.Fprintln(os.Stdout, info.Value)
				return nil
			}
		}
		return fmt.Errorf("unknown config key: %q (valid: %s)", args[0], strings.Join(config.ValidKeys(), ", "))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Set %s", args[0])
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	signupCmd.Flags().String("email", "", "account email")
	signupCmd.Flags().String("password", "", "account password")
	signupCmd.Flags().String("name", "", "display name")

	analyzeCmd.Flags().String("serial", "", "path to the serial number photo")
	analyzeCmd.Flags().String("warranty-card", "", "path to the warranty card photo")
	analyzeCmd.Flags().String("receipt", "", "path to the receipt photo")
	analyzeCmd.Flags().String("product", "", "path to the product photo")

	historyListCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
