package server

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/gridlife/config"
	"github.com/pthm-cable/gridlife/game"
)

// handle applies one command and returns the reply for its sender.
// Commands that change the world also publish a frame.
func (s *Server) handle(cmd Command) Reply {
	switch cmd.Type {
	case CmdStart:
		cfg, err := s.startConfig(cmd)
		if err != nil {
			return replyError(cmd.Type, err.Error())
		}
		s.runner.Stop()
		s.runner.Wait()
		s.runner.Do(func(sim *game.Simulation) { sim.StartNew(cfg) })
		s.publish(s.frame())
		return ack(cmd.Type)

	case CmdStep:
		// Checked under the simulation lock so an auto-run tick cannot
		// interleave with a manual step.
		var busy bool
		s.runner.Do(func(sim *game.Simulation) {
			if s.runner.Running() {
				busy = true
				return
			}
			sim.Step()
		})
		if busy {
			return replyError(cmd.Type, "auto-run is active")
		}
		s.publish(s.frame())
		return ack(cmd.Type)

	case CmdAuto:
		if !s.runner.Start(s.ctx) {
			return replyError(cmd.Type, "no living population or already running")
		}
		return ack(cmd.Type)

	case CmdPause:
		s.runner.Stop()
		s.runner.Wait()
		s.publish(s.frame())
		return ack(cmd.Type)

	case CmdSpeed:
		reply := ack(cmd.Type)
		reply.Speed = s.runner.SetSpeed(cmd.TPS)
		return reply

	case CmdReset:
		s.runner.Stop()
		s.runner.Wait()
		s.runner.Do(func(sim *game.Simulation) { sim.Reset() })
		s.publish(s.frame())
		return ack(cmd.Type)

	case CmdSelect:
		var detail game.AgentDetail
		var ok bool
		s.runner.Do(func(sim *game.Simulation) { detail, ok = sim.Detail(cmd.ID) })
		if !ok {
			return replyError(cmd.Type, fmt.Sprintf("agent %d not found", cmd.ID))
		}
		return Reply{Type: "detail", Command: cmd.Type, Agent: &detail}

	default:
		return replyError(cmd.Type, fmt.Sprintf("unknown command %q", cmd.Type))
	}
}

// startConfig applies the command's overrides to a copy of the base config.
// JSON overrides decode with the YAML field names.
func (s *Server) startConfig(cmd Command) (*config.Config, error) {
	cfg := s.base.Clone()
	if len(cmd.Config) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(cmd.Config, cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
