package executor

import (
	"encoding/binary"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
)

// memoryBytes returns the backing slice for memory Index, taking the mem0
// fast path when Index is the default memory and the cache is populated
// (spec.md §4.3 "cached memory-0 pointer").
func (e *Executor) memoryBytes(idx uint32) []byte {
	if idx == 0 && e.hasMem0 {
		return e.mem0
	}
	inst := e.store.Instances.Resolve(e.instance)
	mem := e.store.Memories.Resolve(inst.Memories[idx])
	return mem.Data
}

// boundsCheck computes the effective byte range [addr, addr+width) and
// traps MemoryOutOfBounds if any part of it falls outside mem.
func boundsCheck(mem []byte, addr uint64, width int) {
	if addr+uint64(width) > uint64(len(mem)) || addr+uint64(width) < addr {
		trap(ir.TrapMemoryOutOfBounds)
	}
}

func effectiveAddr(base cell.Cell, staticOffset ir.BranchOffset) uint64 {
	return base.U64() + uint64(uint32(int32(staticOffset)))
}

// execLoad performs OpLoad: base address in op.A plus the op's static
// offset, widened/narrowed/sign-extended per op.NumOp.
func (e *Executor) execLoad(op ir.Op) {
	addr := effectiveAddr(e.get(op.A), op.Offset)
	e.set(op.Result, e.loadAt(op.Index, addr, op.NumOp))
}

// execLoadAbs performs OpLoadAbs: the address is a translator-precomputed
// absolute offset carried directly in op.Imm (no base-register add).
func (e *Executor) execLoadAbs(op ir.Op) {
	e.set(op.Result, e.loadAt(op.Index, op.Imm.U64(), op.NumOp))
}

func (e *Executor) loadAt(memIdx uint32, addr uint64, numOp ir.NumOp) cell.Cell {
	mem := e.memoryBytes(memIdx)
	switch numOp {
	case ir.LoadI32:
		boundsCheck(mem, addr, 4)
		return cell.FromU32(binary.LittleEndian.Uint32(mem[addr:]))
	case ir.LoadI64:
		boundsCheck(mem, addr, 8)
		return cell.FromU64(binary.LittleEndian.Uint64(mem[addr:]))
	case ir.LoadF32:
		boundsCheck(mem, addr, 4)
		return cell.FromU32(binary.LittleEndian.Uint32(mem[addr:]))
	case ir.LoadF64:
		boundsCheck(mem, addr, 8)
		return cell.FromU64(binary.LittleEndian.Uint64(mem[addr:]))
	case ir.Load8S:
		boundsCheck(mem, addr, 1)
		return cell.FromI32(int32(int8(mem[addr])))
	case ir.Load8U:
		boundsCheck(mem, addr, 1)
		return cell.FromU32(uint32(mem[addr]))
	case ir.Load16S:
		boundsCheck(mem, addr, 2)
		return cell.FromI32(int32(int16(binary.LittleEndian.Uint16(mem[addr:]))))
	case ir.Load16U:
		boundsCheck(mem, addr, 2)
		return cell.FromU32(uint32(binary.LittleEndian.Uint16(mem[addr:])))
	case ir.Load32S:
		boundsCheck(mem, addr, 4)
		return cell.FromI64(int64(int32(binary.LittleEndian.Uint32(mem[addr:]))))
	case ir.Load32U:
		boundsCheck(mem, addr, 4)
		return cell.FromU64(uint64(binary.LittleEndian.Uint32(mem[addr:])))
	default:
		internalErrorf("unhandled load numOp %d", numOp)
		return cell.Zero
	}
}

// execStore performs OpStore: base address in op.A, value in op.B.
func (e *Executor) execStore(op ir.Op) {
	addr := effectiveAddr(e.get(op.A), op.Offset)
	e.storeAt(op.Index, addr, op.NumOp, e.get(op.B))
}

// execStoreImm performs OpStoreImm: base address in op.A, value in op.Imm.
func (e *Executor) execStoreImm(op ir.Op) {
	addr := effectiveAddr(e.get(op.A), op.Offset)
	e.storeAt(op.Index, addr, op.NumOp, op.Imm)
}

func (e *Executor) storeAt(memIdx uint32, addr uint64, numOp ir.NumOp, v cell.Cell) {
	mem := e.memoryBytes(memIdx)
	switch numOp {
	case ir.StoreI32, ir.StoreF32, ir.Store32:
		boundsCheck(mem, addr, 4)
		binary.LittleEndian.PutUint32(mem[addr:], v.U32())
	case ir.StoreI64, ir.StoreF64:
		boundsCheck(mem, addr, 8)
		binary.LittleEndian.PutUint64(mem[addr:], v.U64())
	case ir.Store8:
		boundsCheck(mem, addr, 1)
		mem[addr] = byte(v.U32())
	case ir.Store16:
		boundsCheck(mem, addr, 2)
		binary.LittleEndian.PutUint16(mem[addr:], uint16(v.U32()))
	default:
		internalErrorf("unhandled store numOp %d", numOp)
	}
}
