package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// SimpleNFTMetaData describes the NFT collection the bridge deploys and owns.
var SimpleNFTMetaData = &bind.MetaData{
	ABI: "[{\"type\":\"constructor\",\"inputs\":[{\"name\":\"name\",\"type\":\"string\",\"internalType\":\"string\"},{\"name\":\"symbol\",\"type\":\"string\",\"internalType\":\"string\"}],\"stateMutability\":\"nonpayable\"},{\"type\":\"function\",\"name\":\"mint\",\"inputs\":[{\"name\":\"to\",\"type\":\"address\",\"internalType\":\"address\"},{\"name\":\"contentHash\",\"type\":\"string\",\"internalType\":\"string\"},{\"name\":\"metadataURI\",\"type\":\"string\",\"internalType\":\"string\"}],\"outputs\":[{\"name\":\"\",\"type\":\"uint256\",\"internalType\":\"uint256\"}],\"stateMutability\":\"nonpayable\"},{\"type\":\"event\",\"name\":\"NFTMinted\",\"inputs\":[{\"name\":\"to\",\"type\":\"address\",\"indexed\":true,\"internalType\":\"address\"},{\"name\":\"tokenId\",\"type\":\"uint256\",\"indexed\":true,\"internalType\":\"uint256\"},{\"name\":\"contentHash\",\"type\":\"string\",\"indexed\":false,\"internalType\":\"string\"}],\"anonymous\":false}]",
}

// IPAssetRegistryMetaData is the slice of Story's IPAssetRegistry used to
// register an existing NFT as an IP asset.
var IPAssetRegistryMetaData = &bind.MetaData{
	ABI: "[{\"type\":\"function\",\"name\":\"register\",\"inputs\":[{\"name\":\"chainid\",\"type\":\"uint256\",\"internalType\":\"uint256\"},{\"name\":\"tokenContract\",\"type\":\"address\",\"internalType\":\"address\"},{\"name\":\"tokenId\",\"type\":\"uint256\",\"internalType\":\"uint256\"}],\"outputs\":[{\"name\":\"ipId\",\"type\":\"address\",\"internalType\":\"address\"}],\"stateMutability\":\"nonpayable\"},{\"type\":\"event\",\"name\":\"IPRegistered\",\"inputs\":[{\"name\":\"ipId\",\"type\":\"address\",\"indexed\":false,\"internalType\":\"address\"},{\"name\":\"chainId\",\"type\":\"uint256\",\"indexed\":true,\"internalType\":\"uint256\"},{\"name\":\"tokenContract\",\"type\":\"address\",\"indexed\":true,\"internalType\":\"address\"},{\"name\":\"tokenId\",\"type\":\"uint256\",\"indexed\":true,\"internalType\":\"uint256\"},{\"name\":\"name\",\"type\":\"string\",\"indexed\":false,\"internalType\":\"string\"},{\"name\":\"uri\",\"type\":\"string\",\"indexed\":false,\"internalType\":\"string\"},{\"name\":\"registrationDate\",\"type\":\"uint256\",\"indexed\":false,\"internalType\":\"uint256\"}],\"anonymous\":false}]",
}

// RegistrationWorkflowsMetaData covers the one-shot SPG mint and register call.
var RegistrationWorkflowsMetaData = &bind.MetaData{
	ABI: "[{\"type\":\"function\",\"name\":\"mintAndRegisterIp\",\"inputs\":[{\"name\":\"spgNftContract\",\"type\":\"address\",\"internalType\":\"address\"},{\"name\":\"recipient\",\"type\":\"address\",\"internalType\":\"address\"},{\"name\":\"ipMetadata\",\"type\":\"tuple\",\"internalType\":\"struct WorkflowStructs.IPMetadata\",\"components\":[{\"name\":\"ipMetadataURI\",\"type\":\"string\",\"internalType\":\"string\"},{\"name\":\"ipMetadataHash\",\"type\":\"bytes32\",\"internalType\":\"bytes32\"},{\"name\":\"nftMetadataURI\",\"type\":\"string\",\"internalType\":\"string\"},{\"name\":\"nftMetadataHash\",\"type\":\"bytes32\",\"internalType\":\"bytes32\"}]}],\"outputs\":[{\"name\":\"ipId\",\"type\":\"address\",\"internalType\":\"address\"},{\"name\":\"tokenId\",\"type\":\"uint256\",\"internalType\":\"uint256\"}],\"stateMutability\":\"nonpayable\"}]",
}
