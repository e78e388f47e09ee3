package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/config"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/importer"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/notify"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/pipeline"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/staging"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log, err := zap.NewProduction()
	must(err)
	defer log.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	store := staging.NewStore(db, cfg, log)

	cmd := os.Args[1]
	switch cmd {
	case "import:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		entity := fs.String("entity", "", "countries|categories|ports|companies|suppliers|ships|products")
		file := fs.String("file", "", "xlsx/xls/csv path")
		_ = fs.Parse(os.Args[2:])
		table := loadTable(cfg, *entity, *file)
		result, err := importer.New(db, log).Import(internal.EntityType(*entity), table)
		must(err)
		printJSON(result)
		if len(result.Errors) > 0 {
			printJSON(importer.FormatErrors(result.Errors))
		}
	case "import:precheck":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		entity := fs.String("entity", "", "target entity")
		file := fs.String("file", "", "xlsx/xls/csv path")
		_ = fs.Parse(os.Args[2:])
		table := loadTable(cfg, *entity, *file)
		result, err := importer.New(db, log).Precheck(internal.EntityType(*entity), table, cfg.SimilarityThreshold)
		must(err)
		printJSON(result)
	case "cruise:parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "cruise order xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		content, err := os.ReadFile(*file)
		must(err)
		must(importer.CheckUpload(*file, int64(len(content)), cfg.MaxUploadBytes))
		orders, err := pipeline.NewParser(log).ParseWorkbook(content)
		must(err)
		if errs := pipeline.ValidateOrders(orders); len(errs) > 0 {
			must(fmt.Errorf("invalid orders: %s", strings.Join(errs, "; ")))
		}
		upload, err := store.Put(filepath.Base(*file), orders)
		must(err)
		printJSON(upload)
	case "cruise:match":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		uploadID := fs.String("upload", "", "staged upload id")
		po := fs.String("po", "", "po number within the upload")
		_ = fs.Parse(os.Args[2:])
		upload, err := store.Get(*uploadID)
		must(err)
		if upload == nil {
			must(fmt.Errorf("upload %s not found or expired", *uploadID))
		}
		products, err := db.ListProducts()
		must(err)
		matcher := pipeline.NewMatcher(cfg, products, log)
		for _, order := range upload.Orders {
			if *po != "" && order.PONumber != *po {
				continue
			}
			results, stats := matcher.MatchOrder(order)
			printJSON(map[string]any{"po": order.PONumber, "results": results, "statistics": stats})
		}
	case "cruise:confirm":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		uploadID := fs.String("upload", "", "staged upload id")
		pos := fs.String("pos", "", "comma-separated po numbers (empty = all)")
		_ = fs.Parse(os.Args[2:])
		confirmer := pipeline.NewConfirmer(db, store, log)
		result, err := confirmer.Confirm(*uploadID, splitList(*pos))
		must(err)
		printJSON(result)
	case "cruise:list":
		uploads, err := store.List()
		must(err)
		printJSON(uploads)
	case "cruise:delete":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		uploadID := fs.String("upload", "", "staged upload id")
		_ = fs.Parse(os.Args[2:])
		deleted, err := store.Delete(*uploadID)
		must(err)
		fmt.Printf("deleted=%v\n", deleted)
	case "order:item-status":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		item := fs.Int64("item", 0, "order item id")
		status := fs.String("status", internal.ItemStatusProcessed, "unprocessed|processed")
		_ = fs.Parse(os.Args[2:])
		if *item == 0 {
			must(fmt.Errorf("--item is required"))
		}
		orderStatus, err := pipeline.SetItemStatus(db, *item, *status)
		must(err)
		fmt.Printf("item=%d status=%s order=%s\n", *item, *status, orderStatus)
	case "export:po":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		po := fs.String("po", "", "po number")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *po == "" {
			must(fmt.Errorf("--po is required"))
		}
		path := *out
		if path == "" {
			path = filepath.Join(cfg.OutputDir, fmt.Sprintf("po_%s.xlsx", *po))
		}
		must(pipeline.ExportPurchaseOrderXLSX(db, *po, path))
		fmt.Printf("exported %s to %s\n", *po, path)
	case "notify:po":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		po := fs.String("po", "", "po number")
		to := fs.String("to", "", "supplier email address")
		_ = fs.Parse(os.Args[2:])
		if *po == "" || *to == "" {
			must(fmt.Errorf("--po and --to are required"))
		}
		path := filepath.Join(cfg.OutputDir, fmt.Sprintf("po_%s.xlsx", *po))
		must(pipeline.ExportPurchaseOrderXLSX(db, *po, path))
		sender, err := notify.NewGmailSender(cfg)
		must(err)
		must(sender.SendPurchaseOrder(*to, *po, path))
		fmt.Printf("sent %s to %s\n", *po, *to)
	case "staging:sweep":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		loop := fs.Bool("loop", false, "keep sweeping on an interval")
		_ = fs.Parse(os.Args[2:])
		if *loop {
			must(store.Run(context.Background()))
			return
		}
		n, err := store.Sweep()
		must(err)
		fmt.Printf("expired=%d\n", n)
	default:
		usage()
		os.Exit(1)
	}
}

func loadTable(cfg config.Config, entity, file string) *importer.Table {
	if strings.TrimSpace(entity) == "" || strings.TrimSpace(file) == "" {
		must(fmt.Errorf("--entity and --file are required"))
	}
	content, err := os.ReadFile(file)
	must(err)
	must(importer.CheckUpload(file, int64(len(content)), cfg.MaxUploadBytes))
	table, err := importer.DecodeTable(file, content)
	must(err)
	return table
}

func splitList(input string) []string {
	out := []string{}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(data))
}

func usage() {
	fmt.Println("usage: cruise <command>")
	fmt.Println("commands:")
	fmt.Println("  import:run --entity=products --file=./products.xlsx")
	fmt.Println("  import:precheck --entity=products --file=./products.xlsx")
	fmt.Println("  cruise:parse --file=./orders.xlsx")
	fmt.Println("  cruise:match --upload=<id> [--po=PO123]")
	fmt.Println("  cruise:confirm --upload=<id> [--pos=PO123,PO124]")
	fmt.Println("  cruise:list")
	fmt.Println("  cruise:delete --upload=<id>")
	fmt.Println("  order:item-status --item=1 [--status=processed]")
	fmt.Println("  export:po --po=PO123 [--out=./out/po_PO123.xlsx]")
	fmt.Println("  notify:po --po=PO123 --to=supplier@example.com")
	fmt.Println("  staging:sweep [--loop]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
