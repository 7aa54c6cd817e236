package runtime

import (
	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/processor"
	"github.com/chronodrachma/flashlend/pkg/token"
)

// RegisterDefaults installs the token program and the flash loan receiver.
func RegisterDefaults(h *Host, receiverID, tokenProgramID types.Pubkey) {
	h.Register(tokenProgramID, func(env *Env) Program {
		return token.NewProgram(env.Accounts(), env.Logger())
	})
	h.Register(receiverID, func(env *Env) Program {
		return ProgramFunc(processor.New(env, env.Logger()).Entrypoint)
	})
}
