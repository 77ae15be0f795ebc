package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hausware/deebot/internal/config"
	"github.com/hausware/deebot/internal/core"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	client := &apiClient{
		base: resolveBaseURL(),
		http: &http.Client{Timeout: 10 * time.Second},
	}

	switch os.Args[1] {
	case "plugins":
		pluginsCmd(client, os.Args[2:])
	case "state":
		stateCmd(client)
	case "run":
		runCmd(client, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

type apiClient struct {
	base string
	http *http.Client
}

func (c *apiClient) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) post(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return httpError(resp)
	}
	return nil
}

func httpError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%s", msg)
}

func pluginsCmd(client *apiClient, args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "list":
		var resp struct {
			Plugins []core.PluginSummary `json:"plugins"`
		}
		if err := client.get("/registry/plugins", &resp); err != nil {
			fatal("list plugins", err)
		}
		rows := make([][]string, 0, len(resp.Plugins))
		for _, plugin := range resp.Plugins {
			rows = append(rows, []string{plugin.PluginID, plugin.DisplayName, plugin.Version, plugin.Status})
		}
		printTable(rows)
	case "describe":
		if len(args) < 2 {
			fatal("describe", fmt.Errorf("missing plugin id"))
		}
		var descriptor core.PluginDescriptor
		if err := client.get("/registry/plugins/"+args[1], &descriptor); err != nil {
			fatal("describe plugin", err)
		}
		fmt.Printf("id: %s\n", descriptor.PluginID)
		fmt.Printf("name: %s\n", descriptor.DisplayName)
		fmt.Printf("version: %s\n", descriptor.Version)
		fmt.Printf("status: %s\n", descriptor.Status)
		if descriptor.HealthMessage != "" {
			fmt.Printf("health: %s\n", descriptor.HealthMessage)
		}
		fmt.Println("endpoints:")
		for _, endpoint := range descriptor.Endpoints {
			fmt.Printf("  - %s\n", endpoint)
		}
		fmt.Println("dashboards:")
		for _, dash := range descriptor.Dashboards {
			fmt.Printf("  - %s (%s)\n", dash.Name, dash.Path)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func stateCmd(client *apiClient) {
	var state json.RawMessage
	if err := client.get("/deebot/state", &state); err != nil {
		fatal("get state", err)
	}
	printJSON(state)
}

func runCmd(client *apiClient, args []string) {
	if len(args) < 1 {
		fatal("run", fmt.Errorf("missing verb"))
	}

	verbArgs := make([]any, 0, len(args)-1)
	for _, arg := range args[1:] {
		verbArgs = append(verbArgs, arg)
	}
	body := map[string]any{"verb": args[0]}
	if len(verbArgs) > 0 {
		body["args"] = verbArgs
	}

	if err := client.post("/deebot/command", body); err != nil {
		fatal("run "+args[0], err)
	}
	fmt.Println("accepted")
}

func resolveBaseURL() string {
	addr := os.Getenv("DEEBOTD_HTTP_ADDR")
	if addr == "" {
		for _, path := range configSearchPaths() {
			if fromConfig := addrFromConfig(path); fromConfig != "" {
				addr = fromConfig
				break
			}
		}
	}
	if addr == "" {
		addr = "localhost:8080"
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return strings.TrimSuffix(addr, "/")
}

func configSearchPaths() []string {
	paths := []string{config.DefaultPath}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "deebotd", "config.json"))
	}
	return paths
}

func addrFromConfig(path string) string {
	cfg, err := config.Load(path)
	if err != nil || cfg == nil || cfg.Core == nil {
		return ""
	}
	return cfg.Core.HTTPAddr
}

func usage() {
	fmt.Println("deebot-cli <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  plugins list")
	fmt.Println("  plugins describe <plugin_id>")
	fmt.Println("  state")
	fmt.Println("  run <verb> [args...]   e.g. run clean auto, run spotarea start 3")
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
