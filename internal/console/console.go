package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/automation"
	"github.com/nerrad567/gray-logic-hub/internal/board"
	"github.com/nerrad567/gray-logic-hub/internal/controller"
	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
	"github.com/nerrad567/gray-logic-hub/internal/syncproto"
)

// commandTimeout bounds one command's persistence work.
const commandTimeout = 5 * time.Second

// maxLine caps one input line.
const maxLine = 512

var errUsage = errors.New("usage")

// Controller is the hub state the shell reads and mutates.
type Controller interface {
	Config() settings.Configuration
	State() syncproto.StateMessage
	UpdateConfig(ctx context.Context, u settings.Update, source string) (settings.Configuration, bool, error)
	Control(id device.ID, on bool, value int, source string) error
	Rules() []automation.Rule
	RequestRestart(source string)
	RequestReset(ctx context.Context, source string) error
}

// Logger defines the logging interface used by the console.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// Console executes shell commands against a controller.
type Console struct {
	ctrl     Controller
	out      io.Writer
	logger   Logger
	commands map[string]command
	order    []string
}

// New creates a console writing replies to out.
func New(ctrl Controller, out io.Writer) *Console {
	c := &Console{ctrl: ctrl, out: out, logger: noopLogger{}}
	c.register()
	return c
}

// SetLogger sets the logger for the console.
func (c *Console) SetLogger(logger Logger) {
	c.logger = logger
}

// Run reads commands from in until EOF or ctx is cancelled.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	return c.Serve(ctx, Lines(in))
}

// Serve executes lines until the channel closes or ctx is cancelled.
func (c *Console) Serve(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			c.Exec(ctx, line)
		}
	}
}

// Lines scans in on its own goroutine. The channel closes at EOF or on a
// read error. A reader such as os.Stdin can only be scanned once per
// process, so one channel is shared by every console built over it.
func Lines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, maxLine), maxLine)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// Exec runs one command line. Errors are written to the output.
func (c *Console) Exec(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	cmd, ok := c.commands[name]
	if !ok {
		c.printf("unknown command %q, type help\n", fields[0])
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	err := cmd.run(ctx, fields[1:])
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		c.printf("usage: %s\n", cmd.usage)
	default:
		c.logger.Warn("console command failed", "command", name, "error", err)
		c.printf("error: %v\n", err)
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...) //nolint:errcheck // console output is best effort
}

func (c *Console) add(name, usage, help string, run func(context.Context, []string) error) {
	c.commands[name] = command{usage: usage, help: help, run: run}
	c.order = append(c.order, name)
}

func (c *Console) register() {
	c.commands = make(map[string]command)

	c.add("help", "help", "list commands", c.cmdHelp)
	c.add("status", "status", "show sensors and actuators", c.cmdStatus)
	c.add("config", "config", "show the stored configuration", c.cmdConfig)
	c.add("wifi", "wifi <ssid> [password]", "set station credentials", c.cmdCredentials(false))
	c.add("ap", "ap <ssid> [password]", "set fallback access point", c.cmdCredentials(true))
	c.add("name", "name <device name>", "set the device name", c.cmdName)
	c.add("board", "board <0|1|2|devkit|s2mini|custom>", "select board and its default pins", c.cmdBoard)
	c.add("pin", "pin <role> <n>", "assign a pin to a role", c.cmdPin)
	c.add("rules", "rules", "list automation rules", c.cmdRules)
	for i, id := range []device.ID{device.Relay1, device.Relay2, device.Relay3, device.Relay4} {
		c.add(string(id), string(id)+" on|off", fmt.Sprintf("switch relay %d", i+1), c.cmdRelay(id))
	}
	c.add("led", "led <0-100|on|off>", "set LED brightness", c.cmdLevel(device.LED1))
	c.add("motor", "motor <0-100|on|off>", "set motor speed", c.cmdLevel(device.Motor1))
	c.add("restart", "restart", "restart the hub", c.cmdRestart)
	c.add("reset", "reset", "restore factory settings and restart", c.cmdReset)
}

func (c *Console) cmdHelp(context.Context, []string) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, name := range c.order {
		cmd := c.commands[name]
		fmt.Fprintf(tw, "%s\t%s\n", cmd.usage, cmd.help) //nolint:errcheck // console output
	}
	return tw.Flush()
}

func (c *Console) cmdStatus(context.Context, []string) error {
	st := c.ctrl.State()
	mode := "station " + st.IP
	if st.APMode {
		mode = "access point"
	}
	c.printf("%s  %s  up %ds\n", st.DeviceName, mode, st.Uptime)
	c.printf("temperature %.1f°C  humidity %.1f%%  light %.1f%%  motion %t\n",
		st.Sensors.Temperature, st.Sensors.Humidity, st.Sensors.Light, st.Sensors.Motion)
	for _, d := range st.Devices {
		state := "off"
		if d.State {
			state = "on"
		}
		switch {
		case d.Brightness != nil:
			c.printf("%-7s pin %-2d %s %d%%\n", d.ID, d.Pin, state, *d.Brightness)
		case d.Speed != nil:
			c.printf("%-7s pin %-2d %s %d%%\n", d.ID, d.Pin, state, *d.Speed)
		default:
			c.printf("%-7s pin %-2d %s\n", d.ID, d.Pin, state)
		}
	}
	return nil
}

func (c *Console) cmdConfig(context.Context, []string) error {
	cfg := c.ctrl.Config()
	f := cfg.Flat(true)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"device", f.DeviceName},
		{"board", f.BoardName},
		{"wifi", f.WiFiSSID},
		{"ap", f.APSSID},
		{"logging", fmt.Sprintf("%t %s every %ds", f.EnableLogging, f.LoggingURL, f.LogInterval)},
		{"sensors", fmt.Sprintf("every %ds", f.SensorInterval)},
	}
	for _, role := range board.Roles() {
		rows = append(rows, [2]string{"pin " + string(role), strconv.Itoa(int(cfg.Profile.Get(role)))})
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1]) //nolint:errcheck // console output
	}
	return tw.Flush()
}

func (c *Console) cmdCredentials(ap bool) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		ssid := args[0]
		pass := ""
		if len(args) == 2 {
			pass = args[1]
		}
		var u settings.Update
		label := "wifi"
		if ap {
			u.APSSID, u.APPassword = &ssid, &pass
			label = "ap"
		} else {
			u.WiFiSSID, u.WiFiPassword = &ssid, &pass
		}
		return c.save(ctx, label, u)
	}
}

func (c *Console) cmdName(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.Join(args, " ")
	return c.save(ctx, "name", settings.Update{DeviceName: &name})
}

func (c *Console) cmdBoard(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	t, err := board.Parse(args[0])
	if err != nil {
		return err
	}
	n := int(t)
	return c.save(ctx, "board "+t.String(), settings.Update{BoardType: &n})
}

func (c *Console) cmdPin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	role, err := board.ParseRole(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return errUsage
	}
	var u settings.Update
	u.SetPin(role, n)
	return c.save(ctx, "pin "+string(role), u)
}

func (c *Console) save(ctx context.Context, label string, u settings.Update) error {
	_, restart, err := c.ctrl.UpdateConfig(ctx, u, controller.SourceConsole)
	if err != nil {
		return err
	}
	if restart {
		c.printf("%s saved (restart to apply)\n", label)
		return nil
	}
	c.printf("%s saved\n", label)
	return nil
}

func (c *Console) cmdRules(context.Context, []string) error {
	rules := c.ctrl.Rules()
	if len(rules) == 0 {
		c.printf("no rules\n")
		return nil
	}
	for i, r := range rules {
		action := "off"
		if r.ActionOn {
			action = "on"
		}
		if r.ActionValue >= 0 {
			action += fmt.Sprintf(" %d%%", r.ActionValue)
		}
		c.printf("%d: if %s %s %g then %s %s\n", i+1, r.TriggerDeviceID, r.Comparator, r.Threshold, r.ActionDeviceID, action)
	}
	return nil
}

func (c *Console) cmdRelay(id device.ID) func(context.Context, []string) error {
	return func(_ context.Context, args []string) error {
		if len(args) != 1 {
			return errUsage
		}
		on, err := parseOnOff(args[0])
		if err != nil {
			return errUsage
		}
		return c.control(id, on, device.NoValue)
	}
}

func (c *Console) cmdLevel(id device.ID) func(context.Context, []string) error {
	return func(_ context.Context, args []string) error {
		if len(args) != 1 {
			return errUsage
		}
		switch strings.ToLower(args[0]) {
		case "on":
			return c.control(id, true, device.NoValue)
		case "off":
			return c.control(id, false, device.NoValue)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || n > 100 {
			return errUsage
		}
		return c.control(id, n > 0, n)
	}
}

func (c *Console) control(id device.ID, on bool, value int) error {
	if err := c.ctrl.Control(id, on, value, controller.SourceConsole); err != nil {
		return err
	}
	state := "off"
	if on {
		state = "on"
	}
	if value >= 0 {
		c.printf("%s %s %d%%\n", id, state, value)
		return nil
	}
	c.printf("%s %s\n", id, state)
	return nil
}

func (c *Console) cmdRestart(context.Context, []string) error {
	c.printf("restarting\n")
	c.ctrl.RequestRestart(controller.SourceConsole)
	return nil
}

func (c *Console) cmdReset(ctx context.Context, _ []string) error {
	c.printf("restoring factory settings\n")
	return c.ctrl.RequestReset(ctx, controller.SourceConsole)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, errUsage
}
