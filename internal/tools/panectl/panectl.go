// Package panectl implements the pane host operator CLI. It speaks the
// gateway's WebSocket protocol, so it exercises the same surface the editor
// uses.
package panectl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/net/websocket"
)

// Config holds panectl command configuration.
type Config struct {
	Addr       string
	Timeout    time.Duration
	JSONOutput bool

	Open    string
	ViewID  string
	Profile string
	Layout  string

	List        bool
	DocID       string
	DeleteBlock string
	Retry       string
	Remove      string
	Acquire     string
	Release     string
	Watch       bool
}

type envConfig struct {
	Addr    string        `env:"PAPERBARK_PANECTL_ADDR"    envDefault:"localhost:8391"`
	Timeout time.Duration `env:"PAPERBARK_PANECTL_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		Addr:    envCfg.Addr,
		Timeout: envCfg.Timeout,
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "pane host gateway address (default: PAPERBARK_PANECTL_ADDR or localhost:8391)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout for one-shot actions")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output raw JSON payloads")
	fs.StringVar(&cfg.Open, "open", "", "open a pane on the given URL")
	fs.StringVar(&cfg.ViewID, "view-id", "", "pane id for -open (minted when empty)")
	fs.StringVar(&cfg.Profile, "profile", "", "cookie profile for -open")
	fs.StringVar(&cfg.Layout, "layout", "", "layout for -open (inline|full)")
	fs.BoolVar(&cfg.List, "list", false, "list live panes")
	fs.StringVar(&cfg.DocID, "blocks", "", "list blocks for the given document id")
	fs.StringVar(&cfg.DeleteBlock, "delete-block", "", "delete the given block id")
	fs.StringVar(&cfg.Retry, "retry", "", "retry the given failed pane id")
	fs.StringVar(&cfg.Remove, "remove", "", "remove the given pane id")
	fs.StringVar(&cfg.Acquire, "acquire", "", "add a reference to the given pane id")
	fs.StringVar(&cfg.Release, "release", "", "drop a reference from the given pane id")
	fs.BoolVar(&cfg.Watch, "watch", false, "stream pane lifecycle notices until interrupted")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type wireFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type ackEnvelope struct {
	Result struct {
		Status  string      `json:"status"`
		ViewID  string      `json:"view_id"`
		BlockID string      `json:"block_id"`
		Count   int         `json:"count"`
		Panes   []paneInfo  `json:"panes"`
		Blocks  []blockInfo `json:"blocks"`
	} `json:"result"`
}

type paneInfo struct {
	ViewID       string `json:"view_id"`
	URL          string `json:"url"`
	Profile      string `json:"profile"`
	Layout       string `json:"layout"`
	Phase        string `json:"phase"`
	CanGoBack    bool   `json:"can_go_back"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RefCount     int    `json:"ref_count"`
	GCCandidate  bool   `json:"gc_candidate"`
	LastAccess   string `json:"last_access"`
	Title        string `json:"title"`
}

type blockInfo struct {
	BlockID  string `json:"block_id"`
	DocID    string `json:"doc_id"`
	URL      string `json:"url"`
	Layout   string `json:"layout"`
	Position int    `json:"position"`
}

// noticePayload is the union of every broadcast notice's fields.
type noticePayload struct {
	ViewID      string `json:"view_id"`
	URL         string `json:"url"`
	CanGoBack   bool   `json:"can_go_back"`
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Disposition string `json:"disposition"`
}

// Run executes the panectl command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	action, err := resolveAction(cfg)
	if err != nil {
		return err
	}

	conn, err := dial(cfg.Addr)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c := &client{
		conn:       conn,
		decoder:    json.NewDecoder(conn),
		jsonOutput: cfg.JSONOutput,
		out:        out,
		errOut:     errOut,
	}

	switch action {
	case "-open":
		return c.open(cfg)
	case "-list":
		return c.list()
	case "-blocks":
		return c.listBlocks(cfg.DocID)
	case "-delete-block":
		return c.deleteBlock(cfg.DeleteBlock)
	case "-retry":
		return c.paneOp("pane.retry", cfg.Retry, "Retry queued: %s\n")
	case "-remove":
		return c.paneOp("pane.remove", cfg.Remove, "Removed pane: %s\n")
	case "-acquire":
		return c.paneOp("pane.acquire", cfg.Acquire, "Acquired pane: %s\n")
	case "-release":
		return c.paneOp("pane.release", cfg.Release, "Released pane: %s\n")
	case "-watch":
		return c.watch(ctx)
	}
	return nil
}

// resolveAction picks the single requested action or explains why the flag
// combination is invalid.
func resolveAction(cfg Config) (string, error) {
	var actions []string
	if strings.TrimSpace(cfg.Open) != "" {
		actions = append(actions, "-open")
	}
	if cfg.List {
		actions = append(actions, "-list")
	}
	if strings.TrimSpace(cfg.DocID) != "" {
		actions = append(actions, "-blocks")
	}
	if strings.TrimSpace(cfg.DeleteBlock) != "" {
		actions = append(actions, "-delete-block")
	}
	if strings.TrimSpace(cfg.Retry) != "" {
		actions = append(actions, "-retry")
	}
	if strings.TrimSpace(cfg.Remove) != "" {
		actions = append(actions, "-remove")
	}
	if strings.TrimSpace(cfg.Acquire) != "" {
		actions = append(actions, "-acquire")
	}
	if strings.TrimSpace(cfg.Release) != "" {
		actions = append(actions, "-release")
	}
	if cfg.Watch {
		actions = append(actions, "-watch")
	}

	if len(actions) == 0 {
		return "", errors.New("one of -open, -list, -blocks, -delete-block, -retry, -remove, -acquire, -release, or -watch is required")
	}
	if len(actions) > 1 {
		return "", fmt.Errorf("%s cannot be combined", strings.Join(actions, " and "))
	}
	if actions[0] != "-open" && (cfg.ViewID != "" || cfg.Profile != "" || cfg.Layout != "") {
		return "", errors.New("-view-id, -profile, and -layout require -open")
	}
	return actions[0], nil
}

func dial(addr string) (*websocket.Conn, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("gateway address is required")
	}
	conn, err := websocket.Dial("ws://"+addr+"/ws", "", "http://"+addr)
	if err != nil {
		return nil, fmt.Errorf("dial pane host at %s: %w", addr, err)
	}
	return conn, nil
}

type client struct {
	conn       *websocket.Conn
	decoder    *json.Decoder
	seq        int
	jsonOutput bool
	out        io.Writer
	errOut     io.Writer
}

// call sends one frame and waits for its matching response, skipping any
// broadcast notices that interleave.
func (c *client) call(frameType string, payload any) (json.RawMessage, error) {
	c.seq++
	requestID := fmt.Sprintf("panectl-%d", c.seq)

	frame := wireFrame{Type: frameType, RequestID: requestID}
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", frameType, err)
		}
		frame.Payload = encoded
	}
	if err := json.NewEncoder(c.conn).Encode(frame); err != nil {
		return nil, fmt.Errorf("send %s frame: %w", frameType, err)
	}

	for {
		var got wireFrame
		if err := c.decoder.Decode(&got); err != nil {
			return nil, fmt.Errorf("read %s response: %w", frameType, err)
		}
		if got.RequestID != requestID {
			continue
		}
		if got.Type == "error" {
			var envelope errorEnvelope
			if err := json.Unmarshal(got.Payload, &envelope); err != nil {
				return nil, fmt.Errorf("decode error payload: %w", err)
			}
			return nil, fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
		}
		return got.Payload, nil
	}
}

func (c *client) decodeAck(payload json.RawMessage) (ackEnvelope, error) {
	var ack ackEnvelope
	if err := json.Unmarshal(payload, &ack); err != nil {
		return ackEnvelope{}, fmt.Errorf("decode ack payload: %w", err)
	}
	return ack, nil
}

func (c *client) open(cfg Config) error {
	payload, err := c.call("pane.create", map[string]string{
		"view_id": strings.TrimSpace(cfg.ViewID),
		"url":     strings.TrimSpace(cfg.Open),
		"profile": strings.TrimSpace(cfg.Profile),
		"layout":  strings.TrimSpace(cfg.Layout),
	})
	if err != nil {
		return err
	}
	if c.jsonOutput {
		fmt.Fprintln(c.out, string(payload))
		return nil
	}
	ack, err := c.decodeAck(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created pane: %s\n", ack.Result.ViewID)
	return nil
}

func (c *client) list() error {
	payload, err := c.call("pane.list", nil)
	if err != nil {
		return err
	}
	if c.jsonOutput {
		fmt.Fprintln(c.out, string(payload))
		return nil
	}
	ack, err := c.decodeAck(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Panes: %d\n", ack.Result.Count)
	for _, pane := range ack.Result.Panes {
		fmt.Fprintf(c.out, "  %s phase=%s refs=%d layout=%s url=%s\n",
			pane.ViewID, pane.Phase, pane.RefCount, pane.Layout, pane.URL)
		if pane.Title != "" {
			fmt.Fprintf(c.out, "    title=%s\n", pane.Title)
		}
		if pane.Phase == "error" {
			fmt.Fprintf(c.out, "    error=%d %s\n", pane.ErrorCode, pane.ErrorMessage)
		}
		if pane.GCCandidate {
			fmt.Fprintf(c.out, "    gc-candidate last-access=%s\n", pane.LastAccess)
		}
	}
	return nil
}

func (c *client) listBlocks(docID string) error {
	payload, err := c.call("block.list", map[string]string{"doc_id": strings.TrimSpace(docID)})
	if err != nil {
		return err
	}
	if c.jsonOutput {
		fmt.Fprintln(c.out, string(payload))
		return nil
	}
	ack, err := c.decodeAck(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Blocks: %d\n", ack.Result.Count)
	for _, block := range ack.Result.Blocks {
		fmt.Fprintf(c.out, "  %s pos=%d layout=%s url=%s\n",
			block.BlockID, block.Position, block.Layout, block.URL)
	}
	return nil
}

func (c *client) deleteBlock(blockID string) error {
	payload, err := c.call("block.delete", map[string]string{"block_id": strings.TrimSpace(blockID)})
	if err != nil {
		return err
	}
	if c.jsonOutput {
		fmt.Fprintln(c.out, string(payload))
		return nil
	}
	ack, err := c.decodeAck(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted block: %s\n", ack.Result.BlockID)
	return nil
}

func (c *client) paneOp(frameType, viewID, format string) error {
	payload, err := c.call(frameType, map[string]string{"view_id": strings.TrimSpace(viewID)})
	if err != nil {
		return err
	}
	if c.jsonOutput {
		fmt.Fprintln(c.out, string(payload))
		return nil
	}
	ack, err := c.decodeAck(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, format, ack.Result.ViewID)
	return nil
}

// watch streams broadcast notices until the context ends.
func (c *client) watch(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.conn.Close()
		case <-done:
		}
	}()

	for {
		var frame wireFrame
		if err := c.decoder.Decode(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read notice frame: %w", err)
		}
		c.printNotice(frame)
	}
}

func (c *client) printNotice(frame wireFrame) {
	if c.jsonOutput {
		encoded, err := json.Marshal(frame)
		if err != nil {
			fmt.Fprintf(c.errOut, "Error: encode notice: %v\n", err)
			return
		}
		fmt.Fprintln(c.out, string(encoded))
		return
	}

	var notice noticePayload
	if err := json.Unmarshal(frame.Payload, &notice); err != nil {
		fmt.Fprintf(c.out, "%s %s\n", frame.Type, string(frame.Payload))
		return
	}
	switch frame.Type {
	case "pane.nav_state":
		fmt.Fprintf(c.out, "%s view=%s url=%s can_go_back=%t\n", frame.Type, notice.ViewID, notice.URL, notice.CanGoBack)
	case "pane.failed":
		fmt.Fprintf(c.out, "%s view=%s code=%d message=%s\n", frame.Type, notice.ViewID, notice.Code, notice.Message)
	case "pane.link":
		fmt.Fprintf(c.out, "%s view=%s url=%s disposition=%s\n", frame.Type, notice.ViewID, notice.URL, notice.Disposition)
	default:
		fmt.Fprintf(c.out, "%s view=%s\n", frame.Type, notice.ViewID)
	}
}
