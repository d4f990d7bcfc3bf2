package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const (
	alarmScript  = "play.sh"
	alarmCrontab = "crontabFile"
)

// parseAlarmTime reads a time written as H.MM.
func parseAlarmTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, 0, fmt.Errorf("%s: time must be written as H.MM", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%s: hour must be between 0 and 23", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%s: minute must be between 0 and 59", s)
	}
	return hour, minute, nil
}

// Alarm schedules a daily cron job that plays a sound file.
func Alarm(ec *ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "alarm <H.MM> <sound file>",
		Short: "Play a sound file every day at the given time.",
	}

	return cmd.Run(ec, func() int {
		args := cmd.Args()
		if len(args) != 2 {
			err := fmt.Errorf("usage: %s", cmd.Use)
			ec.Errorf("%v", err)
			ec.LogInvalidInvocation(err)
			return 2
		}

		hour, minute, err := parseAlarmTime(args[0])
		if err != nil {
			ec.Errorf("%v", err)
			ec.LogInvalidInvocation(err)
			return 1
		}

		cwd, err := os.Getwd()
		if err != nil {
			ec.Errorf("%v", err)
			return 1
		}

		sound := args[1]
		if !filepath.IsAbs(sound) {
			sound = filepath.Join(cwd, sound)
		}

		alarm := ec.Shell.Config.Alarm
		fs := ec.Shell.Fs
		script := filepath.Join(cwd, alarmScript)
		play := fmt.Sprintf("%s %s trim 0.0 %d\n", alarm.Player, sound, alarm.DurationSeconds)
		if err := afero.WriteFile(fs, script, []byte(play), 0755); err != nil {
			ec.Errorf("%v", err)
			return 1
		}

		entry := fmt.Sprintf("%d %d * * * %s\n", minute, hour, script)
		if err := afero.WriteFile(fs, filepath.Join(cwd, alarmCrontab), []byte(entry), 0644); err != nil {
			ec.Errorf("%v", err)
			return 1
		}

		return ec.Shell.runProgram(ec, "crontab", filepath.Join(cwd, alarmCrontab))
	})
}

func init() {
	AllBuiltins["alarm"] = ShellBuiltinFunc(Alarm)
}
