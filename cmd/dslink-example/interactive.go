package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/iot-dsa/dslink-go/pkg/link"
	"github.com/iot-dsa/dslink-go/pkg/node"
)

// console is the interactive command loop for dslink-example.
type console struct {
	link *link.Link
	rl   *readline.Instance
}

func newConsole(l *link.Link) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dslink> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &console{link: l, rl: rl}, nil
}

func (c *console) run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "status", "s":
			c.cmdStatus()

		case "tree", "t":
			c.cmdTree()

		case "get", "g":
			c.cmdGet(args)

		case "set":
			c.cmdSet(args)

		case "rm":
			c.cmdRemove(args)

		case "exit", "quit", "q":
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (c *console) printHelp() {
	fmt.Fprint(c.rl.Stdout(), `Commands:
  status, s             Connection state and registry counts
  tree, t               Print the node tree
  get, g <path>         Show a node's value, configs and attributes
  set <path> <value>    Set a value ($key/@key suffixes write configs/attributes)
  rm <path>             Remove a node and its subtree
  help, ?               Show this help
  exit, quit, q         Shut the link down
`)
}

func (c *console) cmdStatus() {
	fmt.Fprintf(c.rl.Stdout(), "dsId:          %s\n", c.link.DsID())
	fmt.Fprintf(c.rl.Stdout(), "state:         %s\n", c.link.State())
	fmt.Fprintf(c.rl.Stdout(), "subscriptions: %d\n", c.link.SubscriptionCount())
	fmt.Fprintf(c.rl.Stdout(), "open streams:  %d\n", c.link.StreamCount())
}

func (c *console) cmdTree() {
	c.printNode(c.link.Tree().Root(), 0)
}

func (c *console) printNode(n *node.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	label := n.Name()
	if label == "" {
		label = "/"
	}
	if v, ok := n.Value(); ok {
		fmt.Fprintf(c.rl.Stdout(), "%s%s = %v\n", indent, label, v)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "%s%s\n", indent, label)
	}
	for _, child := range n.Children() {
		c.printNode(child, depth+1)
	}
}

func (c *console) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: get <path>")
		return
	}
	n := c.link.Tree().Get(args[0])
	if n == nil {
		fmt.Fprintf(c.rl.Stdout(), "no node at %s\n", args[0])
		return
	}

	if v, ok := n.Value(); ok {
		fmt.Fprintf(c.rl.Stdout(), "value: %v (updated %s)\n", v, n.ValueUpdated())
	}
	for k, v := range n.Configs() {
		fmt.Fprintf(c.rl.Stdout(), "%s: %v\n", k, v)
	}
	for k, v := range n.Attributes() {
		fmt.Fprintf(c.rl.Stdout(), "%s: %v\n", k, v)
	}
	for _, child := range n.Children() {
		fmt.Fprintf(c.rl.Stdout(), "child: %s\n", child.Name())
	}
}

func (c *console) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "usage: set <path> <value>")
		return
	}
	value := parseValue(strings.Join(args[1:], " "))
	if !c.link.Tree().Set(args[0], value) {
		fmt.Fprintf(c.rl.Stdout(), "no node at %s\n", args[0])
	}
}

func (c *console) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: rm <path>")
		return
	}
	if !c.link.Remove(args[0]) {
		fmt.Fprintf(c.rl.Stdout(), "no node at %s\n", args[0])
	}
}

// parseValue interprets console input as bool, number or string.
func parseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
