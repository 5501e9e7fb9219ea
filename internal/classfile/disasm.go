package classfile

import (
	"fmt"

	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 反汇编
// ============================================================================

// Instruction 反汇编后的一条指令
type Instruction struct {
	PC     int      // 指令偏移
	Opcode byte     // 操作码
	Text   string   // 助记符与操作数
	Cases  []string // tableswitch/lookupswitch 的分支行
	Length int      // 指令总长度
}

// Disassemble 反汇编字节码。wide 前缀单独成行，被修饰的指令紧随其后
func Disassemble(code []byte, cp ConstantPool) ([]Instruction, error) {
	var out []Instruction
	for pc := 0; pc < len(code); {
		insns, err := decodeAt(code, pc, cp)
		if err != nil {
			return out, err
		}
		out = append(out, insns...)
		last := insns[len(insns)-1]
		pc = last.PC + last.Length
	}
	return out, nil
}

// decodeAt 解码 pc 处的指令
func decodeAt(code []byte, pc int, cp ConstantPool) ([]Instruction, error) {
	op := code[pc]
	name := Mnemonics[op]
	if name == "" {
		return nil, errors.NewRuntimeError(errors.R0002, op, pc)
	}
	need := func(n int) error {
		if pc+n > len(code) {
			return errors.NewClassError(errors.C0003, pc, n)
		}
		return nil
	}
	in := Instruction{PC: pc, Opcode: op, Text: name, Length: 1}

	switch {
	case op == OpLdc:
		if err := need(2); err != nil {
			return nil, err
		}
		idx := uint16(code[pc+1])
		in.Text = fmt.Sprintf("%s #%d <%s>", name, idx, cp.formatOrMark(idx))
		in.Length = 2

	case op == OpNewarray:
		if err := need(2); err != nil {
			return nil, err
		}
		atype := code[pc+1]
		typeName := "?"
		if atype >= ATypeBoolean && atype <= ATypeLong {
			typeName = ATypeNames[atype-ATypeBoolean]
		}
		in.Text = fmt.Sprintf("%s %d (%s)", name, atype, typeName)
		in.Length = 2

	case op == OpBipush:
		if err := need(2); err != nil {
			return nil, err
		}
		in.Text = fmt.Sprintf("%s %d", name, int8(code[pc+1]))
		in.Length = 2

	case (op >= OpIload && op <= OpAload) || (op >= OpIstore && op <= OpAstore) || op == OpRet:
		if err := need(2); err != nil {
			return nil, err
		}
		in.Text = fmt.Sprintf("%s %d", name, code[pc+1])
		in.Length = 2

	case op == OpSipush:
		if err := need(3); err != nil {
			return nil, err
		}
		in.Text = fmt.Sprintf("%s %d", name, S16At(code, pc+1))
		in.Length = 3

	case op == OpIinc:
		if err := need(3); err != nil {
			return nil, err
		}
		in.Text = fmt.Sprintf("%s %d by %d", name, code[pc+1], int8(code[pc+2]))
		in.Length = 3

	case op == OpLdcW || op == OpLdc2W || (op >= OpGetstatic && op <= OpInvokestatic) ||
		op == OpNew || op == OpAnewarray || op == OpCheckcast || op == OpInstanceof:
		if err := need(3); err != nil {
			return nil, err
		}
		idx := U16At(code, pc+1)
		in.Text = fmt.Sprintf("%s #%d <%s>", name, idx, cp.formatOrMark(idx))
		in.Length = 3

	case (op >= OpIfeq && op <= OpJsr) || op == OpIfnull || op == OpIfnonnull:
		if err := need(3); err != nil {
			return nil, err
		}
		off := int(S16At(code, pc+1))
		in.Text = fmt.Sprintf("%s %d (%+d)", name, pc+off, off)
		in.Length = 3

	case op == OpMultianewarray:
		if err := need(4); err != nil {
			return nil, err
		}
		idx := U16At(code, pc+1)
		in.Text = fmt.Sprintf("%s #%d <%s> dim %d", name, idx, cp.formatOrMark(idx), code[pc+3])
		in.Length = 4

	case op == OpInvokeinterface || op == OpInvokedynamic:
		if err := need(5); err != nil {
			return nil, err
		}
		idx := U16At(code, pc+1)
		if op == OpInvokeinterface {
			in.Text = fmt.Sprintf("%s #%d <%s> count %d", name, idx, cp.formatOrMark(idx), code[pc+3])
		} else {
			in.Text = fmt.Sprintf("%s #%d <%s>", name, idx, cp.formatOrMark(idx))
		}
		in.Length = 5

	case op == OpGotoW || op == OpJsrW:
		if err := need(5); err != nil {
			return nil, err
		}
		off := int(S32At(code, pc+1))
		in.Text = fmt.Sprintf("%s %d (%+d)", name, pc+off, off)
		in.Length = 5

	case op == OpWide:
		if err := need(4); err != nil {
			return nil, err
		}
		inner := code[pc+1]
		index := U16At(code, pc+2)
		modified := Instruction{PC: pc + 1, Opcode: inner, Length: 3}
		if inner == OpIinc {
			if err := need(6); err != nil {
				return nil, err
			}
			modified.Text = fmt.Sprintf("%s %d by %d", Mnemonics[inner], index, S16At(code, pc+4))
			modified.Length = 5
		} else {
			modified.Text = fmt.Sprintf("%s %d", Mnemonics[inner], index)
		}
		return []Instruction{in, modified}, nil

	case op == OpTableswitch:
		base := pc + 1 + SwitchPadding(pc)
		if err := need(base - pc + 12); err != nil {
			return nil, err
		}
		def := int(S32At(code, base))
		low := int(S32At(code, base+4))
		high := int(S32At(code, base+8))
		in.Text = fmt.Sprintf("%s %d to %d", name, low, high)
		if high < low {
			return nil, errors.NewClassError(errors.C0003, base, 0)
		}
		if err := need(base - pc + 12 + 4*(high-low+1)); err != nil {
			return nil, err
		}
		for k := 0; k <= high-low; k++ {
			off := int(S32At(code, base+12+4*k))
			in.Cases = append(in.Cases, fmt.Sprintf("%d: %d (%+d)", low+k, pc+off, off))
		}
		in.Cases = append(in.Cases, fmt.Sprintf("default: %d (%+d)", pc+def, def))
		in.Length = base - pc + 12 + 4*(high-low+1)

	case op == OpLookupswitch:
		base := pc + 1 + SwitchPadding(pc)
		if err := need(base - pc + 8); err != nil {
			return nil, err
		}
		def := int(S32At(code, base))
		npairs := int(S32At(code, base+4))
		if npairs < 0 {
			return nil, errors.NewClassError(errors.C0003, base, 0)
		}
		if err := need(base - pc + 8 + 8*npairs); err != nil {
			return nil, err
		}
		in.Text = fmt.Sprintf("%s %d", name, npairs)
		for k := 0; k < npairs; k++ {
			match := int(S32At(code, base+8+8*k))
			off := int(S32At(code, base+12+8*k))
			in.Cases = append(in.Cases, fmt.Sprintf("%d: %d (%+d)", match, pc+off, off))
		}
		in.Cases = append(in.Cases, fmt.Sprintf("default: %d (%+d)", pc+def, def))
		in.Length = base - pc + 8 + 8*npairs
	}

	return []Instruction{in}, nil
}
