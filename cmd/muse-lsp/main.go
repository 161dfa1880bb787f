package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/logging"
	"github.com/mithrel/muse/pkg/markdown"
)

type request struct {
	RPC    string           `json:"jsonrpc"`
	ID     *json.RawMessage `json:"id,omitempty"`
	Method string           `json:"method"`
	Params json.RawMessage  `json:"params,omitempty"`
}

type response struct {
	RPC    string           `json:"jsonrpc"`
	ID     *json.RawMessage `json:"id,omitempty"`
	Result interface{}      `json:"result"`
	Error  interface{}      `json:"error,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   serverInfo         `json:"serverInfo"`
}

type serverInfo struct {
	Name string `json:"name"`
}

type serverCapabilities struct {
	TextDocumentSync       int                    `json:"textDocumentSync"`
	CodeActionProvider     bool                   `json:"codeActionProvider"`
	CompletionProvider     completionProvider     `json:"completionProvider"`
	ExecuteCommandProvider executeCommandProvider `json:"executeCommandProvider"`
}

type executeCommandProvider struct {
	Commands []string `json:"commands"`
}

type executeCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments"`
}

type outgoingRequest struct {
	RPC    string      `json:"jsonrpc"`
	ID     int         `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type applyEditParams struct {
	Label string        `json:"label,omitempty"`
	Edit  workspaceEdit `json:"edit"`
}

type completionProvider struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

type completionItem struct {
	Label      string    `json:"label"`
	Kind       int       `json:"kind,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	FilterText string    `json:"filterText,omitempty"`
	TextEdit   *textEdit `json:"textEdit,omitempty"`
}

type completionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []completionItem `json:"items"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type textDocumentItem struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type textEdit struct {
	Range   lspRange `json:"range"`
	NewText string   `json:"newText"`
}

type workspaceEdit struct {
	Changes map[string][]textEdit `json:"changes"`
}

type codeAction struct {
	Title string        `json:"title"`
	Kind  string        `json:"kind"`
	Edit  workspaceEdit `json:"edit"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

type didChangeParams struct {
	TextDocument   textDocumentIdentifier `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type codeActionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Range        lspRange               `json:"range"`
}

type completionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     position               `json:"position"`
}

// Commands an editor can bind to keys. muse.shortcut takes
// [uri, range, key] where key is a chord such as "ctrl+b"; muse.insertTab
// takes [uri, range].
const (
	cmdShortcut  = "muse.shortcut"
	cmdInsertTab = "muse.insertTab"
)

const (
	syncFull          = 1
	kindRefactor      = "refactor.rewrite"
	completionSnippet = 15
)

var errExit = errors.New("exit")

// server keeps the open buffers in memory; edits arrive as full-text syncs.
type server struct {
	mu   sync.Mutex
	docs map[string]string
	out  io.Writer
	log  *zap.Logger

	nextID int
}

func newServer(out io.Writer, logger *zap.Logger) *server {
	return &server{docs: make(map[string]string), out: out, log: logging.OrNop(logger)}
}

// main speaks Content-Length framed JSON-RPC on stdin/stdout. Logs go to
// stderr so they never interleave with protocol frames.
func main() {
	logger, err := logging.New(logging.Options{Level: envOr("MUSE_LSP_LOG_LEVEL", "warn")})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	s := newServer(os.Stdout, logger.Named("lsp"))
	if err := s.serve(os.Stdin); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, errExit) {
		logger.Error("read", zap.Error(err))
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (s *server) serve(in io.Reader) error {
	reader := bufio.NewReader(in)
	for {
		msg, err := readMessage(reader)
		if err != nil {
			return err
		}
		if err := s.handleMessage(msg); err != nil {
			return err
		}
	}
}

// readMessage reads one length-prefixed message. Headers other than
// Content-Length are ignored.
func readMessage(reader *bufio.Reader) ([]byte, error) {
	contentLength := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length: ") {
			length, err := strconv.Atoi(strings.TrimPrefix(line, "Content-Length: "))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = length
		}
	}

	if contentLength <= 0 {
		return nil, fmt.Errorf("missing Content-Length")
	}

	msg := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *server) handleMessage(msg []byte) error {
	s.log.Debug("received", zap.ByteString("msg", msg))

	var req request
	if err := json.Unmarshal(msg, &req); err != nil {
		s.log.Warn("unmarshal", zap.Error(err))
		return nil
	}

	switch req.Method {
	case "initialize":
		s.reply(req.ID, initializeResult{
			Capabilities: serverCapabilities{
				TextDocumentSync:   syncFull,
				CodeActionProvider: true,
				CompletionProvider: completionProvider{TriggerCharacters: []string{"/"}},
				ExecuteCommandProvider: executeCommandProvider{
					Commands: []string{cmdShortcut, cmdInsertTab},
				},
			},
			ServerInfo: serverInfo{Name: "muse-lsp"},
		})
	case "textDocument/didOpen":
		var p didOpenParams
		if s.decode(req.Params, &p) {
			s.setText(p.TextDocument.URI, p.TextDocument.Text)
		}
	case "textDocument/didChange":
		var p didChangeParams
		if s.decode(req.Params, &p) && len(p.ContentChanges) > 0 {
			s.setText(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
		}
	case "textDocument/didClose":
		var p didCloseParams
		if s.decode(req.Params, &p) {
			s.mu.Lock()
			delete(s.docs, p.TextDocument.URI)
			s.mu.Unlock()
		}
	case "textDocument/codeAction":
		var p codeActionParams
		if !s.decode(req.Params, &p) {
			s.reply(req.ID, []codeAction{})
			return nil
		}
		s.reply(req.ID, s.codeActions(p))
	case "textDocument/completion":
		var p completionParams
		if !s.decode(req.Params, &p) {
			s.reply(req.ID, completionList{Items: []completionItem{}})
			return nil
		}
		s.reply(req.ID, completionList{Items: s.slashCompletions(p)})
	case "workspace/executeCommand":
		var p executeCommandParams
		if s.decode(req.Params, &p) {
			s.executeCommand(p)
		}
		s.reply(req.ID, nil)
	case "shutdown":
		s.reply(req.ID, nil)
	case "exit":
		return errExit
	case "":
		// a client's answer to workspace/applyEdit
	default:
		if req.ID != nil {
			s.reply(req.ID, nil)
		}
	}
	return nil
}

func (s *server) decode(raw json.RawMessage, dst interface{}) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn("params", zap.Error(err))
		return false
	}
	return true
}

func (s *server) setText(uri, text string) {
	s.mu.Lock()
	s.docs[uri] = text
	s.mu.Unlock()
}

func (s *server) text(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.docs[uri]
	return t, ok
}

func (s *server) reply(id *json.RawMessage, result interface{}) {
	s.send(response{RPC: "2.0", ID: id, Result: result})
}

func (s *server) send(msg interface{}) {
	bytes, err := json.Marshal(msg)
	if err != nil {
		s.log.Warn("marshal", zap.Error(err))
		return
	}
	if _, err := fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(bytes), bytes); err != nil {
		s.log.Warn("write", zap.Error(err))
		return
	}
	s.log.Debug("sent", zap.ByteString("msg", bytes))
}

// codeActions offers one rewrite per formatting operation over the selected range.
func (s *server) codeActions(p codeActionParams) []codeAction {
	buf, ok := s.text(p.TextDocument.URI)
	if !ok {
		return []codeAction{}
	}
	start := offsetAt(buf, p.Range.Start)
	end := offsetAt(buf, p.Range.End)
	start, end = markdown.ClampSelection(utf8.RuneCountInString(buf), start, end)

	tools := markdown.Toolbar()
	actions := make([]codeAction, 0, len(tools))
	for _, t := range tools {
		op := markdown.ParseOperation(t.Action)
		if !op.Known() {
			continue
		}
		newText := replacementFor(buf, start, end, op)
		actions = append(actions, codeAction{
			Title: "Markdown: " + t.Label,
			Kind:  kindRefactor,
			Edit: workspaceEdit{Changes: map[string][]textEdit{
				p.TextDocument.URI: {{
					Range:   lspRange{Start: positionAt(buf, start), End: positionAt(buf, end)},
					NewText: newText,
				}},
			}},
		})
	}
	return actions
}

// executeCommand runs a key-bound command and asks the client to apply the edit.
func (s *server) executeCommand(p executeCommandParams) {
	if len(p.Arguments) < 2 {
		s.log.Warn("command arguments", zap.String("command", p.Command))
		return
	}
	var uri string
	var rng lspRange
	if err := json.Unmarshal(p.Arguments[0], &uri); err != nil {
		s.log.Warn("command uri", zap.Error(err))
		return
	}
	if err := json.Unmarshal(p.Arguments[1], &rng); err != nil {
		s.log.Warn("command range", zap.Error(err))
		return
	}
	buf, ok := s.text(uri)
	if !ok {
		return
	}
	start, end := markdown.ClampSelection(utf8.RuneCountInString(buf), offsetAt(buf, rng.Start), offsetAt(buf, rng.End))

	var res markdown.Result
	var label string
	switch p.Command {
	case cmdShortcut:
		var key string
		if len(p.Arguments) < 3 || json.Unmarshal(p.Arguments[2], &key) != nil {
			s.log.Warn("shortcut key missing")
			return
		}
		op := markdown.ShortcutOperation(key)
		if !op.Known() {
			s.log.Debug("unbound shortcut", zap.String("key", key))
			return
		}
		res, label = markdown.Apply(buf, start, end, op), op.String()
	case cmdInsertTab:
		res, label = markdown.InsertTab(buf, start, end), "tab"
	default:
		s.log.Warn("unknown command", zap.String("command", p.Command))
		return
	}

	s.nextID++
	s.send(outgoingRequest{RPC: "2.0", ID: s.nextID, Method: "workspace/applyEdit", Params: applyEditParams{
		Label: label,
		Edit: workspaceEdit{Changes: map[string][]textEdit{
			uri: {{
				Range:   lspRange{Start: positionAt(buf, start), End: positionAt(buf, end)},
				NewText: replacedText(buf, start, end, res),
			}},
		}},
	}})
}

// slashCompletions turns "/bold" style words before the cursor into an edit
// that inserts the empty-selection markdown for that operation.
func (s *server) slashCompletions(p completionParams) []completionItem {
	buf, ok := s.text(p.TextDocument.URI)
	if !ok {
		return []completionItem{}
	}
	cursor := offsetAt(buf, p.Position)
	rs := []rune(buf)
	i := cursor
	for i > 0 && rs[i-1] != '/' && rs[i-1] != '\n' && rs[i-1] != ' ' {
		i--
	}
	if i == 0 || rs[i-1] != '/' {
		return []completionItem{}
	}
	slash := i - 1
	prefix := string(rs[i:cursor])

	items := []completionItem{}
	for _, t := range markdown.Toolbar() {
		op := markdown.ParseOperation(t.Action)
		if !op.Known() {
			continue
		}
		name := op.String()
		if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			continue
		}
		items = append(items, completionItem{
			Label:      "/" + name,
			Kind:       completionSnippet,
			Detail:     t.Label,
			FilterText: "/" + name,
			TextEdit: &textEdit{
				Range:   lspRange{Start: positionAt(buf, slash), End: positionAt(buf, cursor)},
				NewText: replacementFor(string(rs[:slash])+string(rs[cursor:]), slash, slash, op),
			},
		})
	}
	return items
}

// replacementFor returns only the text that replaces buf[start:end] under op.
func replacementFor(buf string, start, end int, op markdown.Operation) string {
	return replacedText(buf, start, end, markdown.Apply(buf, start, end, op))
}

// replacedText extracts what res put in place of buf[start:end].
func replacedText(buf string, start, end int, res markdown.Result) string {
	rs := []rune(res.Text)
	n := len(rs) - (utf8.RuneCountInString(buf) - (end - start))
	return string(rs[start : start+n])
}

// offsetAt converts an LSP position (UTF-16 code units) to a rune offset.
// Positions past the end of a line or the buffer clamp.
func offsetAt(buf string, p position) int {
	line, off := 0, 0
	rs := []rune(buf)
	for off < len(rs) && line < p.Line {
		if rs[off] == '\n' {
			line++
		}
		off++
	}
	units := 0
	for off < len(rs) && rs[off] != '\n' && units < p.Character {
		units += utf16.RuneLen(rs[off])
		off++
	}
	return off
}

// positionAt is the inverse of offsetAt.
func positionAt(buf string, offset int) position {
	var p position
	for i, r := range []rune(buf) {
		if i >= offset {
			break
		}
		if r == '\n' {
			p.Line++
			p.Character = 0
			continue
		}
		p.Character += utf16.RuneLen(r)
	}
	return p
}
