package token

import (
	"bytes"
	"text/template"
)

// ContractName is the name of the generated contract.
const ContractName = "LaunchToken"

// SourceFile is the unit name the source is compiled under.
const SourceFile = ContractName + ".sol"

// ConstructorABI is the constructor every generated token shares.
const ConstructorABI = `[{"inputs":[` +
	`{"internalType":"string","name":"_name","type":"string"},` +
	`{"internalType":"string","name":"_symbol","type":"string"},` +
	`{"internalType":"uint8","name":"_decimals","type":"uint8"},` +
	`{"internalType":"uint256","name":"_initialSupply","type":"uint256"},` +
	`{"internalType":"address","name":"_recipient","type":"address"}` +
	`],"stateMutability":"nonpayable","type":"constructor"}]`

var sourceTmpl = template.Must(template.New("token").Parse(`// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

contract {{.Contract}} {
    string public name;
    string public symbol;
    uint8 public decimals;
    uint256 public totalSupply;
    mapping(address => uint256) public balanceOf;
    mapping(address => mapping(address => uint256)) public allowance;
{{- if .Pausable}}
    address public owner;
    bool public paused;
{{- end}}

    event Transfer(address indexed from, address indexed to, uint256 value);
    event Approval(address indexed owner, address indexed spender, uint256 value);
{{- if .Pausable}}
    event Paused(address account);
    event Unpaused(address account);

    modifier onlyOwner() {
        require(msg.sender == owner, 'not owner');
        _;
    }
{{- end}}

    constructor(string memory _name, string memory _symbol, uint8 _decimals, uint256 _initialSupply, address _recipient) {
        require(_recipient != address(0), 'zero address');
        name = _name;
        symbol = _symbol;
        decimals = _decimals;
{{- if .Pausable}}
        owner = msg.sender;
{{- end}}
        uint256 supply = _initialSupply * (10 ** uint256(_decimals));
        totalSupply = supply;
        balanceOf[_recipient] = supply;
        emit Transfer(address(0), _recipient, supply);
    }

    function _transfer(address from, address to, uint256 value) internal {
        require(to != address(0), 'zero address');
{{- if .Pausable}}
        require(!paused, 'paused');
{{- end}}
        uint256 fromBal = balanceOf[from];
        require(fromBal >= value, 'insufficient');
        unchecked { balanceOf[from] = fromBal - value; }
        balanceOf[to] += value;
        emit Transfer(from, to, value);
    }

    function _spendAllowance(address from, uint256 value) internal {
        uint256 allowed = allowance[from][msg.sender];
        require(allowed >= value, 'not allowed');
        if (allowed != type(uint256).max) {
            allowance[from][msg.sender] = allowed - value;
        }
    }

    function transfer(address to, uint256 value) external returns (bool) {
        _transfer(msg.sender, to, value);
        return true;
    }

    function approve(address spender, uint256 value) external returns (bool) {
        allowance[msg.sender][spender] = value;
        emit Approval(msg.sender, spender, value);
        return true;
    }

    function transferFrom(address from, address to, uint256 value) external returns (bool) {
        _spendAllowance(from, value);
        _transfer(from, to, value);
        return true;
    }
{{- if .Burnable}}

    function _burn(address from, uint256 value) internal {
        uint256 fromBal = balanceOf[from];
        require(fromBal >= value, 'insufficient');
        unchecked {
            balanceOf[from] = fromBal - value;
            totalSupply -= value;
        }
        emit Transfer(from, address(0), value);
    }

    function burn(uint256 value) external {
        _burn(msg.sender, value);
    }

    function burnFrom(address from, uint256 value) external {
        _spendAllowance(from, value);
        _burn(from, value);
    }
{{- end}}
{{- if .Pausable}}

    function pause() external onlyOwner {
        paused = true;
        emit Paused(msg.sender);
    }

    function unpause() external onlyOwner {
        paused = false;
        emit Unpaused(msg.sender);
    }
{{- end}}
}
`))

// Source renders the Solidity source for the request's feature set.
func Source(r Request) (string, error) {
	var buf bytes.Buffer
	err := sourceTmpl.Execute(&buf, struct {
		Contract string
		Burnable bool
		Pausable bool
	}{ContractName, r.Burnable, r.Pausable})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
