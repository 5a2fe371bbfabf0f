// Command grove-inspect is a read-only inspector for chidb-format
// database files: it opens a file, prints its header, and can walk a
// B-tree's page structure. It never mutates the file it inspects.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"grovedb/pkg/btree"
	"grovedb/pkg/config"
	"grovedb/pkg/pager"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")).MarginBottom(1)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
)

// CLI mirrors the teacher's noun-first kong layout: a top-level struct
// whose fields are cmd:"" subcommands.
var CLI struct {
	Config string    `help:"Path to a grove.yaml config file (only affects files this tool creates)" default:"grove.yaml"`
	Header HeaderCmd `cmd:"" help:"Print the 100-byte file header"`
	Page   PageCmd   `cmd:"" help:"Print one page's node header"`
	Walk   WalkCmd   `cmd:"" help:"Walk a B-tree's page structure"`
	Find   FindCmd   `cmd:"" help:"Look up a key in a table B-tree"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Name("grove-inspect"),
		kong.Description("Inspect chidb-format database files."))
	if err := ctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func field(label string, value any) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(fmt.Sprint(value))
}

// openBt loads CLI.Config (falling back to config.Default() if it doesn't
// exist) and opens path with it. The config only has visible effect on a
// path this tool itself creates: every subcommand's Path argument is
// type:"existingfile", so in practice this seeds nothing but keeps the
// inspector consistent with any other program opening the same file.
func openBt(path string) (*btree.Bt, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	return btree.OpenWithConfig(path, cfg)
}

// HeaderCmd prints the file header.
type HeaderCmd struct {
	Path string `arg:"" help:"Path to the database file" type:"existingfile"`
}

func (c *HeaderCmd) Run() error {
	pg, err := pager.Open(c.Path)
	if err != nil {
		return err
	}
	defer pg.Close()

	var raw [pager.HeaderSize]byte
	if err := pg.ReadHeader(&raw); err != nil {
		return err
	}
	hdr, err := btree.DecodeHeader(raw)
	if err != nil {
		return err
	}
	if err := pg.SetPageSize(hdr.PageSize); err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("File Header"))
	fmt.Println(field("page size", hdr.PageSize))
	fmt.Println(field("file change counter", hdr.FileChangeCounter))
	fmt.Println(field("schema version", hdr.SchemaVersion))
	fmt.Println(field("page cache size", hdr.PageCacheSize))
	fmt.Println(field("user cookie", hdr.UserCookie))
	fmt.Println(field("page count", pg.PageCount()))
	return nil
}

// PageCmd prints one page's node header fields.
type PageCmd struct {
	Path string `arg:"" help:"Path to the database file" type:"existingfile"`
	Page uint32 `arg:"" help:"Page number to inspect"`
}

func (c *PageCmd) Run() error {
	bt, err := openBt(c.Path)
	if err != nil {
		return err
	}
	defer bt.Close()

	info, err := bt.DescribePage(c.Page)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Page %d", c.Page)))
	fmt.Println(field("type", info.Type))
	fmt.Println(field("cell count", info.NCells))
	fmt.Println(field("free space", info.FreeSpace))
	if info.Type.IsInternal() {
		fmt.Println(field("right page", info.RightPage))
	}
	return nil
}

// WalkCmd walks a B-tree's page structure depth-first, printing each
// node's type and cell count indented by depth.
type WalkCmd struct {
	Path string `arg:"" help:"Path to the database file" type:"existingfile"`
	Root uint32 `arg:"" help:"Root page number of the tree to walk"`
}

func (c *WalkCmd) Run() error {
	bt, err := openBt(c.Path)
	if err != nil {
		return err
	}
	defer bt.Close()

	pages, err := bt.CollectPages(c.Root)
	if err != nil {
		return err
	}
	if err := bt.Preload(pages); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("warning: preload: "+err.Error()))
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Walking tree rooted at page %d", c.Root)))
	return bt.Walk(c.Root, func(depth int, info btree.PageInfo) error {
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "  "
		}
		fmt.Printf("%s%s\n", indent, valueStyle.Render(
			fmt.Sprintf("page %d [%s] cells=%d", info.PageNo, info.Type, info.NCells)))
		return nil
	})
}

// FindCmd looks up a key in a table B-tree and prints the raw payload
// length, since decoding it into typed columns requires schema
// information this tool doesn't have.
type FindCmd struct {
	Path string `arg:"" help:"Path to the database file" type:"existingfile"`
	Root uint32 `arg:"" help:"Root page number of the table to search"`
	Key  uint32 `arg:"" help:"Key to look up"`
}

func (c *FindCmd) Run() error {
	bt, err := openBt(c.Path)
	if err != nil {
		return err
	}
	defer bt.Close()

	payload, err := bt.Find(c.Root, c.Key)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Key %d", c.Key)))
	fmt.Println(field("payload size", len(payload)))
	return nil
}
